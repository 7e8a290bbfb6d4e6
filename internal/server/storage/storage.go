// Package storage defines the authoritative store contract: unique-name
// enforcement, cascading deletes, and a strictly increasing server sequence
// assigned once per committed record.
package storage

import (
	"context"
	"time"
)

// User is an authoritative user record
type User struct {
	CreatedAt time.Time
	ID        string
	Username  string
}

// Group is an authoritative group record. ServerSeq is assigned exactly
// once at commit time and never reused.
type Group struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ID                string
	Name              string
	CreatedBy         string
	CreatedByUsername string
	ServerSeq         int64
}

// Message is an authoritative message record
type Message struct {
	CreatedAt      time.Time
	ID             string
	GroupID        string
	SenderID       string
	SenderUsername string
	Body           string
	ServerSeq      int64
}

// MessageEvent is a message feed entry with its group snapshot
type MessageEvent struct {
	Message
	Group *Group
}

// UserStorage persists users
type UserStorage interface {
	// CreateUser inserts a new user.
	// Returns ErrUsernameTaken on a duplicate username.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByUsername retrieves a user by username
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByID retrieves a user by id
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// GroupStorage persists groups and memberships
type GroupStorage interface {
	// CreateGroup inserts a new group, drawing its server sequence inside
	// the same transaction. Returns ErrGroupNameTaken if a different group
	// holds the name.
	CreateGroup(ctx context.Context, group *Group) (*Group, error)

	// GetGroupByID retrieves a group by id
	GetGroupByID(ctx context.Context, id string) (*Group, error)

	// ListGroups returns all groups with creator usernames resolved
	ListGroups(ctx context.Context) ([]*Group, error)

	// DeleteGroup hard-deletes a group; messages and memberships cascade
	DeleteGroup(ctx context.Context, id string) error

	// AddMembership joins a user to a group. Idempotent: membership is a
	// set.
	AddMembership(ctx context.Context, userID, groupID string) error

	// ListUserGroupIDs returns the ids of all groups the user belongs to
	ListUserGroupIDs(ctx context.Context, userID string) ([]string, error)
}

// MessageStorage persists messages and serves the event feeds
type MessageStorage interface {
	// CreateMessage inserts a new message, drawing its server sequence
	// inside the same transaction
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)

	// GetMessageByID retrieves a message by id
	GetMessageByID(ctx context.Context, id string) (*Message, error)

	// MessageEventsSince returns messages in the given groups with
	// server_seq > since, ascending, capped at limit, each with a group
	// snapshot
	MessageEventsSince(ctx context.Context, groupIDs []string, since int64, limit int) ([]*MessageEvent, error)

	// GroupEventsSince returns groups with server_seq > since, ascending,
	// capped at limit
	GroupEventsSince(ctx context.Context, since int64, limit int) ([]*Group, error)
}
