package api

import "time"

// CreateGroupRequest represents an idempotent group upsert keyed by the
// client-generated id. The client also supplies timestamps so that a record
// created offline keeps its original creation time once it reaches the
// authority.
type CreateGroupRequest struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"` // creator user id
}

// Group represents a group record as returned by the authority.
// ServerSeq is assigned exactly once at commit time.
type Group struct {
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CreatedBy         string    `json:"createdBy"`
	CreatedByUsername string    `json:"createdByUsername,omitempty"`
	ServerSeq         int64     `json:"serverSeq"`
}

// DeleteGroupRequest identifies the requester of a group deletion.
// Only the group creator may delete a group.
type DeleteGroupRequest struct {
	UserID string `json:"userId"`
}

// JoinGroupRequest identifies the user joining a group. Joining is
// idempotent: membership is a set.
type JoinGroupRequest struct {
	UserID string `json:"userId"`
}

// JoinGroupResponse acknowledges a (possibly repeated) join
type JoinGroupResponse struct {
	Success bool `json:"success"`
}
