package models

import (
	"encoding/json"
	"time"
)

// Operation is the kind of mutation queued in the Outbox
type Operation string

const (
	OpCreateGroup Operation = "create-group"
	OpDeleteGroup Operation = "delete-group"
	OpSendMessage Operation = "send-message"
	OpJoinGroup   Operation = "join-group"
)

// OutboxStatus is the lifecycle state of an Outbox item
type OutboxStatus string

const (
	// OutboxPending means the item awaits its next flush attempt
	OutboxPending OutboxStatus = "pending"
	// OutboxInFlight means a flush pass is currently sending the item
	OutboxInFlight OutboxStatus = "in-flight"
	// OutboxSynced means the authority confirmed the mutation.
	// A synced item is never resurrected.
	OutboxSynced OutboxStatus = "synced"
	// OutboxFailed means the item exhausted its retry budget and requires
	// manual intervention
	OutboxFailed OutboxStatus = "failed"
)

// MaxRetries is the retry ceiling: after this many failed attempts an item
// becomes terminally failed and is excluded from automatic retry.
const MaxRetries = 5

// OutboxItem is one pending local mutation not yet confirmed by the
// authority. Exactly one item exists per logical mutation.
type OutboxItem struct {
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt time.Time       `json:"last_attempt_at"`
	ID            string          `json:"id"`
	Op            Operation       `json:"op"`
	Payload       json.RawMessage `json:"payload"`
	Status        OutboxStatus    `json:"status"`
	LastError     string          `json:"last_error,omitempty"`
	RetryCount    int             `json:"retry_count"`
}

// CreateGroupPayload is the payload of an OpCreateGroup item
type CreateGroupPayload struct {
	Group Group `json:"group"`
}

// DeleteGroupPayload is the payload of an OpDeleteGroup item
type DeleteGroupPayload struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

// SendMessagePayload is the payload of an OpSendMessage item
type SendMessagePayload struct {
	Message Message `json:"message"`
}

// JoinGroupPayload is the payload of an OpJoinGroup item
type JoinGroupPayload struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}
