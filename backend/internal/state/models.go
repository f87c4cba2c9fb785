package state

import (
	"fmt"
)

// Group is a chat group as reported by the group listing
type Group struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Members      []Member `json:"members"`
	MessageCount int      `json:"message_count"`
}

// Member is a participant currently registered in a group
type Member struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Message is a single message record from a message page.
// Pages are ordered newest first.
type Message struct {
	ID          string   `json:"id"`
	SenderID    string   `json:"sender_id"`
	Name        string   `json:"name"`
	Text        string   `json:"text"`
	FavoritedBy []string `json:"favorited_by"`
}

// Validate checks that a message carries what aggregation needs
func (m *Message) Validate() error {
	if m.SenderID == "" {
		return ErrInvalidMessage{MessageID: m.ID, Reason: "missing sender_id"}
	}
	return nil
}

// MemberStats holds the engagement counters for one member identity
type MemberStats struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	MessagesSent  int            `json:"messages_sent"`
	LikesGiven    int            `json:"likes_given"`
	LikesReceived int            `json:"likes_received"`
	WordsSent     int            `json:"words_sent"`
	SelfLikes     int            `json:"self_likes"`
	LikesByMember map[string]int `json:"likes_by_member"` // liker id -> likes on this member's messages
	SharedLikes   map[string]int `json:"shared_likes"`    // other id -> messages both liked
}

// NewMemberStats returns zeroed stats with initialized maps
func NewMemberStats(id, name string) *MemberStats {
	return &MemberStats{
		ID:            id,
		Name:          name,
		LikesByMember: make(map[string]int),
		SharedLikes:   make(map[string]int),
	}
}

// Errors

type ErrInvalidMessage struct {
	MessageID string
	Reason    string
}

func (e ErrInvalidMessage) Error() string {
	return fmt.Sprintf("invalid message %q: %s", e.MessageID, e.Reason)
}
