// Package sync implements the offline-first synchronization engine: the
// outbox flusher, the event puller with its monotonic cursor, the
// online-first direct write path, and the orchestrator that serializes sync
// cycles and reports status to listeners.
package sync

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	httpClient "github.com/offlinehq/chatsync/internal/client/api"
	"github.com/offlinehq/chatsync/internal/client/backoff"
	"github.com/offlinehq/chatsync/internal/client/storage"
)

const (
	// DefaultInterval is the periodic sync trigger interval
	DefaultInterval = 10 * time.Second

	// DefaultPullLimit bounds each event feed request
	DefaultPullLimit = 100
)

// Listener is notified on every idle/syncing transition
type Listener func(syncing bool)

// Result summarizes one sync cycle
type Result struct {
	// Flushed is the number of outbox items confirmed this cycle
	Flushed int
	// Applied is the number of authoritative events merged this cycle
	Applied int
}

// Config wires the collaborators of the sync service. Clock and jitter are
// injectable so the scheduling policy stays deterministic under test.
type Config struct {
	API      httpClient.ClientAPI
	Mirror   storage.MirrorStorage
	Outbox   storage.OutboxStorage
	Metadata storage.MetadataStorage
	Logger   *slog.Logger
	UserID   string

	// Interval between periodic sync triggers; DefaultInterval if zero
	Interval time.Duration
	// PullLimit bounds each feed request; DefaultPullLimit if zero
	PullLimit int
	// Now is the clock; time.Now if nil
	Now func() time.Time
	// Jitter yields values in [0,1) for cycle backoff; math/rand if nil
	Jitter func() float64
}

// Service is the single sync actor of the process. At most one sync cycle
// runs at a time; triggers arriving mid-cycle are no-ops.
type Service struct {
	apiClient httpClient.ClientAPI
	mirror    storage.MirrorStorage
	outbox    storage.OutboxStorage
	metadata  storage.MetadataStorage
	logger    *slog.Logger
	userID    string

	interval  time.Duration
	pullLimit int
	now       func() time.Time
	jitter    func() float64

	mu         sync.Mutex
	syncing    bool
	online     bool
	nextID     int
	listeners  []listenerEntry
	retryTimer *time.Timer
	closed     bool
}

type listenerEntry struct {
	fn Listener
	id int
}

// New creates the sync service. The client starts offline; connectivity is
// reported through SetOnline.
func New(cfg Config) *Service {
	s := &Service{
		apiClient: cfg.API,
		mirror:    cfg.Mirror,
		outbox:    cfg.Outbox,
		metadata:  cfg.Metadata,
		logger:    cfg.Logger,
		userID:    cfg.UserID,
		interval:  cfg.Interval,
		pullLimit: cfg.PullLimit,
		now:       cfg.Now,
		jitter:    cfg.Jitter,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.pullLimit <= 0 {
		s.pullLimit = DefaultPullLimit
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.jitter == nil {
		s.jitter = rand.Float64
	}
	return s
}

// Online reports the current connectivity belief
func (s *Service) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// SetOnline records a connectivity transition. Going from offline to online
// triggers an immediate sync cycle.
func (s *Service) SetOnline(ctx context.Context, online bool) {
	s.mu.Lock()
	wasOnline := s.online
	s.online = online
	s.mu.Unlock()

	if online && !wasOnline {
		s.logger.Info("connectivity restored, triggering sync")
		if _, err := s.Sync(ctx); err != nil {
			s.logger.Warn("sync after reconnect failed", "error", err)
		}
	}
}

// AddListener registers a status listener and returns its id for removal.
// The listener immediately observes the current state, then every
// idle/syncing transition, synchronously and in registration order.
func (s *Service) AddListener(fn Listener) int {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	current := s.syncing
	s.mu.Unlock()

	fn(current)
	return id
}

// RemoveListener unregisters a status listener
func (s *Service) RemoveListener(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.listeners {
		if e.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// notifyListeners invokes a snapshot of the listeners outside the lock so a
// listener may call back into the service.
func (s *Service) notifyListeners(syncing bool) {
	s.mu.Lock()
	snapshot := make([]listenerEntry, len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, e := range snapshot {
		e.fn(syncing)
	}
}

// Sync runs one full cycle: flush the outbox, then pull and merge
// authoritative events. When offline, or when a cycle is already in flight,
// the call is a no-op and returns (nil, nil). Cycle-level failures schedule
// a randomized retry and are returned; they never affect unrelated callers.
func (s *Service) Sync(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if !s.online || s.syncing {
		s.mu.Unlock()
		return nil, nil
	}
	s.syncing = true
	s.mu.Unlock()

	s.notifyListeners(true)
	start := s.now()

	result := &Result{}
	flushed, err := s.flushOutbox(ctx)
	result.Flushed = flushed
	if err == nil {
		var applied int
		applied, err = s.pull(ctx, s.pullLimit)
		result.Applied = applied
	}

	duration := s.now().Sub(start)
	if err != nil {
		s.logger.Warn("sync cycle failed", "error", err, "duration_ms", duration.Milliseconds())
		s.recordMetrics(ctx, 0, 1, duration)
	} else {
		s.logger.Info("sync cycle completed",
			"flushed", result.Flushed,
			"applied", result.Applied,
			"duration_ms", duration.Milliseconds())
		s.recordMetrics(ctx, result.Flushed+result.Applied, 0, duration)
	}

	s.mu.Lock()
	s.syncing = false
	s.mu.Unlock()
	s.notifyListeners(false)

	if err != nil {
		s.scheduleCycleRetry()
		return result, err
	}
	return result, nil
}

// Run drives periodic sync cycles until the context is cancelled
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.logger.Debug("periodic sync failed", "error", err)
			}
		}
	}
}

// Close stops any scheduled cycle retry
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

// PendingCount returns the number of outbox items awaiting confirmation
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.outbox.CountPending(ctx)
}

// scheduleCycleRetry arms a one-shot retry after a randomized delay in
// [5s, 30s) so recovery from a transient outage does not wait for the next
// periodic tick.
func (s *Service) scheduleCycleRetry() {
	delay := backoff.CycleDelay(s.jitter())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.retryTimer != nil {
		return
	}
	s.logger.Debug("scheduling sync retry", "delay_ms", delay.Milliseconds())
	s.retryTimer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		s.retryTimer = nil
		s.mu.Unlock()
		if _, err := s.Sync(context.Background()); err != nil {
			s.logger.Debug("sync retry failed", "error", err)
		}
	})
}

// recordMetrics folds the cycle outcome into the durable metrics record.
// Best-effort only: metrics must never block or fail the sync path.
func (s *Service) recordMetrics(ctx context.Context, synced, failed int, duration time.Duration) {
	metrics, err := s.metadata.GetMetrics(ctx)
	if err != nil {
		s.logger.Debug("failed to load sync metrics", "error", err)
		return
	}
	metrics.Observe(s.now(), synced, failed, duration)
	if err := s.metadata.SaveMetrics(ctx, metrics); err != nil {
		s.logger.Debug("failed to save sync metrics", "error", err)
	}
}
