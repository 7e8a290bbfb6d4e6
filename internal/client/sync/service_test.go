package sync

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/offlinehq/chatsync/internal/client/api"
	"github.com/offlinehq/chatsync/internal/client/storage/boltdb"
	"github.com/offlinehq/chatsync/pkg/api"
)

// stubAPI is a scripted authority. Unset hooks succeed with empty results.
type stubAPI struct {
	mu sync.Mutex

	createGroupFn   func(req api.CreateGroupRequest) (*api.Group, error)
	createMessageFn func(req api.CreateMessageRequest) (*api.Message, error)
	deleteGroupFn   func(groupID, userID string) (*api.Group, error)
	joinGroupFn     func(groupID, userID string) error
	messageEventsFn func(since int64, limit int, userID string) ([]api.MessageEvent, error)
	groupEventsFn   func(since int64, limit int) ([]api.GroupEvent, error)

	messageSince []int64
	groupSince   []int64
}

var _ httpClient.ClientAPI = (*stubAPI)(nil)

func (s *stubAPI) CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error) {
	return &api.User{ID: "stub-user", Username: req.Username}, nil
}

func (s *stubAPI) GetUserByName(ctx context.Context, username string) (*api.User, error) {
	return &api.User{ID: "stub-user", Username: username}, nil
}

func (s *stubAPI) GetUserByID(ctx context.Context, id string) (*api.User, error) {
	return &api.User{ID: id, Username: "stub"}, nil
}

func (s *stubAPI) CreateGroup(ctx context.Context, req api.CreateGroupRequest) (*api.Group, error) {
	if s.createGroupFn != nil {
		return s.createGroupFn(req)
	}
	return &api.Group{
		ID:        req.ID,
		Name:      req.Name,
		CreatedBy: req.CreatedBy,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
		ServerSeq: 1,
	}, nil
}

func (s *stubAPI) ListGroups(ctx context.Context) ([]api.Group, error) {
	return nil, nil
}

func (s *stubAPI) DeleteGroup(ctx context.Context, groupID, userID string) (*api.Group, error) {
	if s.deleteGroupFn != nil {
		return s.deleteGroupFn(groupID, userID)
	}
	return &api.Group{ID: groupID}, nil
}

func (s *stubAPI) JoinGroup(ctx context.Context, groupID, userID string) error {
	if s.joinGroupFn != nil {
		return s.joinGroupFn(groupID, userID)
	}
	return nil
}

func (s *stubAPI) CreateMessage(ctx context.Context, req api.CreateMessageRequest) (*api.Message, error) {
	if s.createMessageFn != nil {
		return s.createMessageFn(req)
	}
	return &api.Message{
		ID:        req.ID,
		GroupID:   req.GroupID,
		SenderID:  req.SenderID,
		Body:      req.Body,
		CreatedAt: req.CreatedAt,
		ServerSeq: 1,
	}, nil
}

func (s *stubAPI) MessageEvents(ctx context.Context, since int64, limit int, userID string) ([]api.MessageEvent, error) {
	s.mu.Lock()
	s.messageSince = append(s.messageSince, since)
	s.mu.Unlock()
	if s.messageEventsFn != nil {
		return s.messageEventsFn(since, limit, userID)
	}
	return nil, nil
}

func (s *stubAPI) GroupEvents(ctx context.Context, since int64, limit int) ([]api.GroupEvent, error) {
	s.mu.Lock()
	s.groupSince = append(s.groupSince, since)
	s.mu.Unlock()
	if s.groupEventsFn != nil {
		return s.groupEventsFn(since, limit)
	}
	return nil, nil
}

func (s *stubAPI) Ping(ctx context.Context) error {
	return nil
}

func (s *stubAPI) pullCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messageSince)
}

// fakeClock is an advanceable clock for exercising backoff windows
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const testUserID = "user-1"

func setupService(t *testing.T, stub *stubAPI, clock *fakeClock) (*Service, *boltdb.Storage) {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	cfg := Config{
		API:      stub,
		Mirror:   store,
		Outbox:   store,
		Metadata: store,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		UserID:   testUserID,
		Jitter:   func() float64 { return 0 },
	}
	if clock != nil {
		cfg.Now = clock.Now
	}

	s := New(cfg)
	t.Cleanup(s.Close)
	return s, store
}

func statusError(code int) error {
	return &httpClient.StatusError{Message: http.StatusText(code), StatusCode: code}
}

func TestService_SyncOfflineIsNoop(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, _ := setupService(t, stub, nil)

	result, err := s.Sync(ctx)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, stub.pullCount(), "offline sync must not touch the network")
}

func TestService_SetOnlineTriggersSync(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, _ := setupService(t, stub, nil)

	s.SetOnline(ctx, true)
	assert.Equal(t, 1, stub.pullCount())

	// Staying online does not re-trigger
	s.SetOnline(ctx, true)
	assert.Equal(t, 1, stub.pullCount())

	// Offline then online again does
	s.SetOnline(ctx, false)
	s.SetOnline(ctx, true)
	assert.Equal(t, 2, stub.pullCount())
}

func TestService_ReentrantSyncIsNoop(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, _ := setupService(t, stub, nil)
	s.SetOnline(ctx, true)

	var nested *Result
	var nestedErr error
	id := s.AddListener(func(syncing bool) {
		if syncing {
			nested, nestedErr = s.Sync(ctx)
		}
	})
	defer s.RemoveListener(id)

	result, err := s.Sync(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Nil(t, nested, "a trigger arriving mid-cycle must coalesce")
	assert.NoError(t, nestedErr)
}

func TestService_ListenerReplayAndTransitions(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, _ := setupService(t, stub, nil)
	s.SetOnline(ctx, true)

	var states []bool
	id := s.AddListener(func(syncing bool) {
		states = append(states, syncing)
	})
	defer s.RemoveListener(id)

	// Registration replays the current (idle) state immediately
	require.Equal(t, []bool{false}, states)

	_, err := s.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true, false}, states)
}

func TestService_RemovedListenerStopsObserving(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{}
	s, _ := setupService(t, stub, nil)
	s.SetOnline(ctx, true)

	calls := 0
	id := s.AddListener(func(bool) { calls++ })
	s.RemoveListener(id)

	_, err := s.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "only the registration replay should be observed")
}

func TestService_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{
		groupEventsFn: func(since int64, limit int) ([]api.GroupEvent, error) {
			if since > 0 {
				return nil, nil
			}
			return []api.GroupEvent{{
				Type: api.EventTypeGroup, ID: "g1", Name: "general",
				CreatedBy: testUserID, ServerSeq: 1,
			}}, nil
		},
	}
	clock := newFakeClock()
	s, store := setupService(t, stub, clock)
	s.SetOnline(ctx, true)

	metrics, err := store.GetMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), metrics.LastSync)
	assert.Equal(t, int64(1), metrics.TotalSynced)
	assert.Zero(t, metrics.FailedCount)
}

func TestService_FailedCycleCountsAsFailure(t *testing.T) {
	ctx := context.Background()
	stub := &stubAPI{
		messageEventsFn: func(int64, int, string) ([]api.MessageEvent, error) {
			return nil, statusError(http.StatusInternalServerError)
		},
	}
	clock := newFakeClock()
	s, store := setupService(t, stub, clock)
	s.SetOnline(ctx, true)

	_, err := s.Sync(ctx)
	assert.Error(t, err)

	metrics, merr := store.GetMetrics(ctx)
	require.NoError(t, merr)
	assert.Equal(t, int64(2), metrics.FailedCount, "reconnect sync and explicit sync both failed")
}
