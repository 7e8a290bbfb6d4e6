package sync

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinehq/chatsync/internal/models"
	"github.com/offlinehq/chatsync/pkg/api"
)

func TestPull_MergesFeedsBySequence(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	stub := &stubAPI{
		groupEventsFn: func(since int64, limit int) ([]api.GroupEvent, error) {
			if since > 0 {
				return nil, nil
			}
			return []api.GroupEvent{{
				Type: api.EventTypeGroup, ID: "g1", Name: "general",
				CreatedBy: "u2", CreatedByUsername: "bob",
				CreatedAt: now, UpdatedAt: now, ServerSeq: 1,
			}}, nil
		},
		messageEventsFn: func(since int64, limit int, userID string) ([]api.MessageEvent, error) {
			if since > 0 {
				return nil, nil
			}
			return []api.MessageEvent{{
				Type: api.EventTypeMessage, ID: "m1", GroupID: "g1",
				SenderID: "u2", SenderUsername: "bob", Body: "hi",
				CreatedAt: now, ServerSeq: 2,
			}}, nil
		},
	}
	s, store := setupService(t, stub, nil)
	s.SetOnline(ctx, true)

	group, err := store.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, models.ConfirmedSeq(1), group.ServerSeq)

	msg, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MessageSent, msg.Status)
	assert.Equal(t, models.ConfirmedSeq(2), msg.ServerSeq)

	cursor, err := store.GetCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor, "cursor advances to the maximum applied sequence")
}

func TestPull_AppliesGroupSnapshotFromMessageEvent(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	stub := &stubAPI{
		messageEventsFn: func(since int64, limit int, userID string) ([]api.MessageEvent, error) {
			if since > 0 {
				return nil, nil
			}
			return []api.MessageEvent{{
				Type: api.EventTypeMessage, ID: "m1", GroupID: "g1",
				SenderID: "u2", Body: "hi", CreatedAt: now, ServerSeq: 5,
				Group: &api.Group{
					ID: "g1", Name: "general", CreatedBy: "u2",
					CreatedAt: now, UpdatedAt: now, ServerSeq: 4,
				},
			}}, nil
		},
	}
	s, store := setupService(t, stub, nil)
	s.SetOnline(ctx, true)

	// The snapshot fills in a group whose own event was missed
	group, err := store.GetGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "general", group.Name)
	assert.Equal(t, models.ConfirmedSeq(4), group.ServerSeq)
}

func TestPull_FeedFailureLeavesCursorUntouched(t *testing.T) {
	ctx := context.Background()

	stub := &stubAPI{
		groupEventsFn: func(int64, int) ([]api.GroupEvent, error) {
			return nil, statusError(http.StatusInternalServerError)
		},
		messageEventsFn: func(since int64, limit int, userID string) ([]api.MessageEvent, error) {
			return []api.MessageEvent{{
				Type: api.EventTypeMessage, ID: "m1", GroupID: "g1",
				SenderID: "u2", Body: "hi", ServerSeq: 9,
			}}, nil
		},
	}
	s, store := setupService(t, stub, nil)
	require.NoError(t, store.SaveCursor(ctx, 3))
	s.SetOnline(ctx, true)

	_, err := s.Sync(ctx)
	assert.Error(t, err)

	// The half-fetched message batch was not applied either
	cursor, cerr := store.GetCursor(ctx)
	require.NoError(t, cerr)
	assert.Equal(t, int64(3), cursor)

	_, merr := store.GetMessage(ctx, "m1")
	assert.Error(t, merr)
}

func TestPull_EmptyFeedAtNonzeroCursorResetsOnce(t *testing.T) {
	ctx := context.Background()

	stub := &stubAPI{}
	s, store := setupService(t, stub, nil)
	require.NoError(t, store.SaveCursor(ctx, 42))

	s.SetOnline(ctx, true)

	// First attempt at 42, reset, second attempt at 0, then stop
	assert.Equal(t, []int64{42, 0}, stub.messageSince)

	cursor, err := store.GetCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cursor)
}

func TestPull_EmptyFeedAtZeroCursorIsQuiet(t *testing.T) {
	ctx := context.Background()

	stub := &stubAPI{}
	s, _ := setupService(t, stub, nil)
	s.SetOnline(ctx, true)

	assert.Equal(t, []int64{0}, stub.messageSince, "no reset retry from a zero cursor")
}

func TestPull_ReappliedEventsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	events := []api.GroupEvent{{
		Type: api.EventTypeGroup, ID: "g1", Name: "general",
		CreatedBy: "u2", CreatedAt: now, UpdatedAt: now, ServerSeq: 1,
	}}
	stub := &stubAPI{
		groupEventsFn: func(since int64, limit int) ([]api.GroupEvent, error) {
			// Always replay the full feed, as after an authority reset
			return events, nil
		},
	}
	s, store := setupService(t, stub, nil)
	s.SetOnline(ctx, true)

	_, err := s.Sync(ctx)
	require.NoError(t, err)

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1, "re-applied events upsert, never duplicate")
}
