package storage

import (
	"context"
	"time"

	"github.com/offlinehq/chatsync/internal/models"
)

// OutboxStorage is the durable queue of pending local mutations. Items are
// mutated only through the methods below; each mutation is a single atomic
// transaction, so at most one flush cycle observes a given transition.
type OutboxStorage interface {
	// Enqueue appends a new pending item and returns it.
	// Never blocks on the network.
	Enqueue(ctx context.Context, op models.Operation, payload any) (*models.OutboxItem, error)

	// ListRetryable returns pending (or retriable failed) items whose
	// backoff window has elapsed at now, ordered by creation time. Items
	// at or past the retry ceiling are excluded.
	ListRetryable(ctx context.Context, now time.Time) ([]*models.OutboxItem, error)

	// MarkInFlight transitions an item to in-flight and stamps the attempt
	// time
	MarkInFlight(ctx context.Context, id string, now time.Time) error

	// MarkSynced transitions an item to synced. A synced item is terminal
	// and never resurrected.
	MarkSynced(ctx context.Context, id string) error

	// MarkFailed records a failed attempt: increments the retry count and
	// returns the item to pending, or to terminal failed once the retry
	// ceiling is reached. Returns the updated item.
	MarkFailed(ctx context.Context, id string, errMsg string) (*models.OutboxItem, error)

	// MarkFailedPermanently transitions an item straight to terminal
	// failed, bypassing the remaining retry budget. Used for errors that
	// must not be retried (authorization, not-found). Returns the updated
	// item.
	MarkFailedPermanently(ctx context.Context, id string, errMsg string) (*models.OutboxItem, error)

	// CountPending returns the number of items still awaiting confirmation
	// (pending or in-flight)
	CountPending(ctx context.Context) (int, error)
}
