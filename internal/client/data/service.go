// Package data is the application-facing surface over the sync engine and
// the Local Mirror: it validates input, stamps client-generated identifiers,
// and reads mirrored records. Rendering and request shaping stay out here;
// all consistency concerns live in the sync package.
package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/offlinehq/chatsync/internal/client/storage"
	syncengine "github.com/offlinehq/chatsync/internal/client/sync"
	"github.com/offlinehq/chatsync/internal/models"
	"github.com/offlinehq/chatsync/internal/validation"
)

// Service exposes the client's domain operations
type Service interface {
	CreateGroup(ctx context.Context, name string) (*models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	JoinGroup(ctx context.Context, groupID string) error
	SendMessage(ctx context.Context, groupID, body string) (*models.Message, error)

	ListGroups(ctx context.Context) ([]*models.Group, error)
	ListMessages(ctx context.Context, groupID string) ([]*models.Message, error)
}

type service struct {
	engine *syncengine.Service
	mirror storage.MirrorStorage
	user   *models.User
}

// NewService creates the client data service acting as user
func NewService(engine *syncengine.Service, mirror storage.MirrorStorage, user *models.User) Service {
	return &service{
		engine: engine,
		mirror: mirror,
		user:   user,
	}
}

// CreateGroup validates the name and writes a new group online-first.
// Validation failures are rejected here and never reach the outbox.
func (s *service) CreateGroup(ctx context.Context, name string) (*models.Group, error) {
	if err := validation.ValidateGroupName(name); err != nil {
		return nil, err
	}

	now := time.Now()
	group := &models.Group{
		ID:                uuid.New().String(),
		Name:              name,
		CreatedBy:         s.user.ID,
		CreatedByUsername: s.user.Username,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	return s.engine.CreateGroup(ctx, group)
}

// DeleteGroup removes a group. Only the creator may delete a group; a
// mirrored foreign group is rejected before anything is queued.
func (s *service) DeleteGroup(ctx context.Context, groupID string) error {
	group, err := s.mirror.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy != s.user.ID {
		return fmt.Errorf("only the group creator can delete %q", group.Name)
	}

	return s.engine.DeleteGroup(ctx, groupID)
}

// JoinGroup adds the current user to a group
func (s *service) JoinGroup(ctx context.Context, groupID string) error {
	if _, err := s.mirror.GetGroup(ctx, groupID); err != nil {
		return err
	}
	return s.engine.JoinGroup(ctx, groupID)
}

// SendMessage validates the body and writes a message online-first
func (s *service) SendMessage(ctx context.Context, groupID, body string) (*models.Message, error) {
	if err := validation.ValidateMessageBody(body); err != nil {
		return nil, err
	}
	if _, err := s.mirror.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:             uuid.New().String(),
		GroupID:        groupID,
		SenderID:       s.user.ID,
		SenderUsername: s.user.Username,
		Body:           body,
		CreatedAt:      time.Now(),
	}

	return s.engine.SendMessage(ctx, msg)
}

// ListGroups returns all mirrored groups
func (s *service) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.mirror.ListGroups(ctx)
}

// ListMessages returns the mirrored messages of a group in creation order
func (s *service) ListMessages(ctx context.Context, groupID string) ([]*models.Message, error) {
	if _, err := s.mirror.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.mirror.ListMessages(ctx, groupID)
}
