package api

import "time"

// CreateMessageRequest represents an idempotent message create keyed by the
// client-generated id
type CreateMessageRequest struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
}

// Message represents a message record as returned by the authority
type Message struct {
	CreatedAt      time.Time `json:"createdAt"`
	ID             string    `json:"id"`
	GroupID        string    `json:"groupId"`
	SenderID       string    `json:"senderId"`
	SenderUsername string    `json:"senderUsername,omitempty"`
	Body           string    `json:"body"`
	ServerSeq      int64     `json:"serverSeq"`
}
