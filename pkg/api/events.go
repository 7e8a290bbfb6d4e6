package api

import "time"

// Event type discriminators carried in the "type" field of feed events
const (
	EventTypeMessage = "message"
	EventTypeGroup   = "group"
)

// MessageEvent is one entry of the privacy-filtered message feed.
// Group is an optional snapshot of the containing group, included as a
// consistency hint so a client that missed the group event can still
// mirror the group.
type MessageEvent struct {
	CreatedAt      time.Time `json:"createdAt"`
	Group          *Group    `json:"group,omitempty"`
	Type           string    `json:"type"`
	ID             string    `json:"id"`
	GroupID        string    `json:"groupId"`
	SenderID       string    `json:"senderId"`
	SenderUsername string    `json:"senderUsername,omitempty"`
	Body           string    `json:"body"`
	ServerSeq      int64     `json:"serverSeq"`
}

// GroupEvent is one entry of the public group feed
type GroupEvent struct {
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Type              string    `json:"type"`
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CreatedBy         string    `json:"createdBy"`
	CreatedByUsername string    `json:"createdByUsername,omitempty"`
	ServerSeq         int64     `json:"serverSeq"`
}

// MessageEventsResponse is the body of GET /events/messages
type MessageEventsResponse struct {
	Events []MessageEvent `json:"events"`
}

// GroupEventsResponse is the body of GET /events/groups
type GroupEventsResponse struct {
	Events []GroupEvent `json:"events"`
}
