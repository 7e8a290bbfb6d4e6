package storage

import (
	"context"

	"github.com/offlinehq/chatsync/internal/models"
)

// MetadataStorage holds the sync bookkeeping: the event cursor and the
// best-effort sync metrics record.
type MetadataStorage interface {
	// SaveCursor persists the sync watermark. The cursor is owned
	// exclusively by the event puller.
	SaveCursor(ctx context.Context, seq int64) error

	// GetCursor retrieves the sync watermark.
	// Returns 0 if no pull has completed yet.
	GetCursor(ctx context.Context) (int64, error)

	// SaveMetrics persists the sync metrics record
	SaveMetrics(ctx context.Context, m *models.SyncMetrics) error

	// GetMetrics retrieves the sync metrics record, zero-valued if none
	// was recorded yet
	GetMetrics(ctx context.Context) (*models.SyncMetrics, error)
}
