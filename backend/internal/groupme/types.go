package groupme

import "groupme-analyzer/backend/internal/state"

// envelope is the wrapper GroupMe puts around every payload
type envelope struct {
	Response interface{} `json:"response"`
	Meta     struct {
		Code   int      `json:"code"`
		Errors []string `json:"errors"`
	} `json:"meta"`
}

type groupDTO struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Members  []memberDTO `json:"members"`
	Messages struct {
		Count int `json:"count"`
	} `json:"messages"`
}

type memberDTO struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

type messagePageDTO struct {
	Count    int          `json:"count"`
	Messages []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID          string   `json:"id"`
	SenderID    string   `json:"sender_id"`
	Name        string   `json:"name"`
	Text        *string  `json:"text"`
	FavoritedBy []string `json:"favorited_by"`
}

func (g groupDTO) toGroup() state.Group {
	members := make([]state.Member, 0, len(g.Members))
	for _, m := range g.Members {
		name := m.Name
		if name == "" {
			name = m.Nickname
		}
		members = append(members, state.Member{UserID: m.UserID, Name: name})
	}
	return state.Group{
		ID:           g.ID,
		Name:         g.Name,
		Members:      members,
		MessageCount: g.Messages.Count,
	}
}

func (m messageDTO) toMessage() state.Message {
	text := ""
	if m.Text != nil {
		text = *m.Text
	}
	return state.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		Name:        m.Name,
		Text:        text,
		FavoritedBy: m.FavoritedBy,
	}
}
