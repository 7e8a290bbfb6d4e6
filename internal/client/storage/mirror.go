package storage

import (
	"context"

	"github.com/offlinehq/chatsync/internal/models"
)

// MirrorStorage is the Local Mirror: the sole owner of record state visible
// to the rest of the application. Upserts and deletes are atomic with
// respect to each other; cross-record ordering is the caller's concern.
type MirrorStorage interface {
	// SaveGroup inserts or replaces a group record
	SaveGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by id.
	// Returns ErrGroupNotFound if the group is not mirrored.
	GetGroup(ctx context.Context, id string) (*models.Group, error)

	// ListGroups returns all mirrored groups
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// DeleteGroupCascade removes a group together with all of its messages
	// and memberships in one atomic operation. Deleting an absent group is
	// a no-op.
	DeleteGroupCascade(ctx context.Context, groupID string) error

	// SaveMessage inserts or replaces a message record
	SaveMessage(ctx context.Context, msg *models.Message) error

	// GetMessage retrieves a message by id.
	// Returns ErrMessageNotFound if the message is not mirrored.
	GetMessage(ctx context.Context, id string) (*models.Message, error)

	// SetMessageStatus updates the local delivery status of a message.
	// Unknown ids are ignored: the message may have been removed by a
	// cascading group delete while its outbox item was still pending.
	SetMessageStatus(ctx context.Context, id string, status models.MessageStatus) error

	// ListMessages returns all mirrored messages of a group ordered by
	// creation time
	ListMessages(ctx context.Context, groupID string) ([]*models.Message, error)

	// SaveMembership inserts or replaces a membership record
	SaveMembership(ctx context.Context, m *models.Membership) error

	// ListMemberships returns all mirrored memberships of a group
	ListMemberships(ctx context.Context, groupID string) ([]*models.Membership, error)
}
