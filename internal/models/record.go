package models

import "time"

// ServerSeq is the authority-assigned commit sequence number of a record.
// A record created locally while offline has no sequence yet; modeling the
// confirmed/unconfirmed distinction as a tagged pair keeps "has this been
// confirmed" a type-level question instead of a magic zero value.
type ServerSeq struct {
	Seq       int64 `json:"seq"`
	Confirmed bool  `json:"confirmed"`
}

// ConfirmedSeq returns a sequence confirmed by the authority
func ConfirmedSeq(seq int64) ServerSeq {
	return ServerSeq{Seq: seq, Confirmed: true}
}

// UnconfirmedSeq returns the zero watermark of a local, unsynced record
func UnconfirmedSeq() ServerSeq {
	return ServerSeq{}
}

// MessageStatus is the local-only delivery projection of a message
type MessageStatus string

const (
	// MessageSending means the message awaits confirmation by the authority
	MessageSending MessageStatus = "sending"
	// MessageSent means the authority confirmed the message (has a ServerSeq)
	MessageSent MessageStatus = "sent"
	// MessageFailed means delivery failed terminally after the retry ceiling
	MessageFailed MessageStatus = "failed"
)

// User represents a user known to the client
type User struct {
	CreatedAt time.Time  `json:"created_at"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	ID        string     `json:"id"`
	Username  string     `json:"username"`
}

// Group represents a chat group in the Local Mirror
type Group struct {
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CreatedBy         string    `json:"created_by"`
	CreatedByUsername string    `json:"created_by_username,omitempty"`
	ServerSeq         ServerSeq `json:"server_seq"`
}

// Message represents a chat message in the Local Mirror
type Message struct {
	CreatedAt      time.Time     `json:"created_at"`
	ID             string        `json:"id"`
	GroupID        string        `json:"group_id"`
	SenderID       string        `json:"sender_id"`
	SenderUsername string        `json:"sender_username,omitempty"`
	Body           string        `json:"body"`
	Status         MessageStatus `json:"status"`
	ServerSeq      ServerSeq     `json:"server_seq"`
}

// Membership represents a user's membership in a group
type Membership struct {
	JoinedAt time.Time `json:"joined_at"`
	UserID   string    `json:"user_id"`
	GroupID  string    `json:"group_id"`
}
