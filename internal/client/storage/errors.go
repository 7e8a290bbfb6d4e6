package storage

import "errors"

// Common client storage errors
var (
	// ErrGroupNotFound indicates that the group is not in the Local Mirror
	ErrGroupNotFound = errors.New("group not found")

	// ErrMessageNotFound indicates that the message is not in the Local Mirror
	ErrMessageNotFound = errors.New("message not found")

	// ErrOutboxItemNotFound indicates that the outbox item does not exist
	ErrOutboxItemNotFound = errors.New("outbox item not found")
)
