package sync

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinehq/chatsync/internal/models"
	"github.com/offlinehq/chatsync/pkg/api"
)

func localGroup(s *Service) *models.Group {
	return &models.Group{
		ID:        "g1",
		Name:      "general",
		CreatedBy: testUserID,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
}

func localMessage(s *Service) *models.Message {
	return &models.Message{
		ID:        "m1",
		GroupID:   "g1",
		SenderID:  testUserID,
		Body:      "hello",
		CreatedAt: s.now(),
	}
}

func TestWriter_CreateGroupOffline(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, store := setupService(t, stub, newFakeClock())

	group, err := s.CreateGroup(ctx, localGroup(s))
	require.NoError(t, err)
	assert.False(t, group.ServerSeq.Confirmed)

	// Mirrored optimistically with the creator's membership
	mirrored, err := store.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, mirrored.ServerSeq.Confirmed)

	memberships, err := store.ListMemberships(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, testUserID, memberships[0].UserID)

	// Queued, not sent
	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Zero(t, stub.pullCount())
}

func TestWriter_CreateGroupOnline(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{
		createGroupFn: func(req api.CreateGroupRequest) (*api.Group, error) {
			return &api.Group{
				ID: req.ID, Name: req.Name, CreatedBy: req.CreatedBy,
				CreatedByUsername: "alice",
				CreatedAt:         req.CreatedAt, UpdatedAt: req.UpdatedAt,
				ServerSeq: 11,
			}, nil
		},
	}
	s, store := setupService(t, stub, newFakeClock())
	s.SetOnline(ctx, true)

	group, err := s.CreateGroup(ctx, localGroup(s))
	require.NoError(t, err)
	assert.Equal(t, models.ConfirmedSeq(11), group.ServerSeq)
	assert.Equal(t, "alice", group.CreatedByUsername)

	mirrored, err := store.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, mirrored.ServerSeq.Confirmed)

	// Nothing queued on the direct path
	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestWriter_CreateGroupConflictIsSurfaced(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{
		createGroupFn: func(api.CreateGroupRequest) (*api.Group, error) {
			return nil, statusError(http.StatusConflict)
		},
	}
	s, store := setupService(t, stub, newFakeClock())
	s.SetOnline(ctx, true)

	_, err := s.CreateGroup(ctx, localGroup(s))
	require.Error(t, err)

	// A name conflict is the user's problem: no mirror entry, no outbox item
	_, gerr := store.GetGroup(ctx, "g1")
	assert.Error(t, gerr)

	count, cerr := store.CountPending(ctx)
	require.NoError(t, cerr)
	assert.Zero(t, count)
}

func TestWriter_CreateGroupDegradesToOutboxOnTransientError(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{
		createGroupFn: func(api.CreateGroupRequest) (*api.Group, error) {
			return nil, statusError(http.StatusBadGateway)
		},
	}
	s, store := setupService(t, stub, newFakeClock())
	s.SetOnline(ctx, true)

	_, err := s.CreateGroup(ctx, localGroup(s))
	require.Error(t, err, "the transient failure is still reported")

	// But the write survives locally and is queued for replay
	mirrored, gerr := store.GetGroup(ctx, "g1")
	require.NoError(t, gerr)
	assert.False(t, mirrored.ServerSeq.Confirmed)

	count, cerr := store.CountPending(ctx)
	require.NoError(t, cerr)
	assert.Equal(t, 1, count)
}

func TestWriter_SendMessageOffline(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, store := setupService(t, stub, newFakeClock())

	msg, err := s.SendMessage(ctx, localMessage(s))
	require.NoError(t, err)
	assert.Equal(t, models.MessageSending, msg.Status)
	assert.False(t, msg.ServerSeq.Confirmed)

	mirrored, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MessageSending, mirrored.Status)

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWriter_SendMessageOnline(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{
		createMessageFn: func(req api.CreateMessageRequest) (*api.Message, error) {
			return &api.Message{
				ID: req.ID, GroupID: req.GroupID, SenderID: req.SenderID,
				SenderUsername: "alice", Body: req.Body,
				CreatedAt: req.CreatedAt, ServerSeq: 21,
			}, nil
		},
	}
	s, store := setupService(t, stub, newFakeClock())
	s.SetOnline(ctx, true)

	msg, err := s.SendMessage(ctx, localMessage(s))
	require.NoError(t, err)
	assert.Equal(t, models.MessageSent, msg.Status)
	assert.Equal(t, models.ConfirmedSeq(21), msg.ServerSeq)

	mirrored, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MessageSent, mirrored.Status)
}

func TestWriter_SendMessagePermanentRejection(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{
		createMessageFn: func(api.CreateMessageRequest) (*api.Message, error) {
			return nil, statusError(http.StatusNotFound)
		},
	}
	s, store := setupService(t, stub, newFakeClock())
	s.SetOnline(ctx, true)

	_, err := s.SendMessage(ctx, localMessage(s))
	require.Error(t, err)

	// Retrying a 404 cannot succeed, so nothing is kept or queued
	_, merr := store.GetMessage(ctx, "m1")
	assert.Error(t, merr)

	count, cerr := store.CountPending(ctx)
	require.NoError(t, cerr)
	assert.Zero(t, count)
}

func TestWriter_DeleteGroupOffline(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, store := setupService(t, stub, newFakeClock())

	group := localGroup(s)
	require.NoError(t, store.SaveGroup(ctx, group))
	require.NoError(t, store.SaveMessage(ctx, localMessage(s)))

	require.NoError(t, s.DeleteGroup(ctx, group.ID))

	_, err := store.GetGroup(ctx, group.ID)
	assert.Error(t, err)
	_, err = store.GetMessage(ctx, "m1")
	assert.Error(t, err, "local cascade removes the group's messages")

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWriter_JoinGroupOnline(t *testing.T) {
	ctx := context.Background()
	joined := false
	stub := &stubAPI{
		joinGroupFn: func(groupID, userID string) error {
			joined = true
			assert.Equal(t, "g1", groupID)
			assert.Equal(t, testUserID, userID)
			return nil
		},
	}
	s, store := setupService(t, stub, newFakeClock())
	s.SetOnline(ctx, true)

	require.NoError(t, s.JoinGroup(ctx, "g1"))
	assert.True(t, joined)

	memberships, err := store.ListMemberships(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, memberships, 1)
}
