package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that the user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates that the username is already registered
	ErrUsernameTaken = errors.New("username already taken")

	// ErrGroupNotFound indicates that the group was not found or deleted
	ErrGroupNotFound = errors.New("group not found")

	// ErrGroupNameTaken indicates that a different group already has the name
	ErrGroupNameTaken = errors.New("group name already exists")

	// ErrMessageNotFound indicates that the message was not found
	ErrMessageNotFound = errors.New("message not found")
)
