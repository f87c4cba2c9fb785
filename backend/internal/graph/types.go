package graph

import "time"

// Analysis is a stored analysis run and the counters it measured
type Analysis struct {
	ID                string          `json:"id"`
	GroupID           string          `json:"group_id"`
	GroupName         string          `json:"group_name"`
	MessagesProcessed int             `json:"messages_processed"`
	CreatedAt         time.Time       `json:"created_at"`
	Members           []MemberCounter `json:"members"`
}

// MemberCounter is one member's row of an Analysis
type MemberCounter struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MessagesSent  int    `json:"messages_sent"`
	LikesGiven    int    `json:"likes_given"`
	SelfLikes     int    `json:"self_likes"`
	LikesReceived int    `json:"likes_received"`
	WordsSent     int    `json:"words_sent"`
}
