package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/offlinehq/chatsync/internal/models"
)

const (
	keySyncCursor  = "sync_cursor"
	keySyncMetrics = "sync_metrics"
)

// SaveCursor persists the sync watermark
func (s *Storage) SaveCursor(ctx context.Context, seq int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(seq))

		if err := bucket.Put([]byte(keySyncCursor), buf); err != nil {
			return fmt.Errorf("failed to save sync cursor: %w", err)
		}

		return nil
	})
}

// GetCursor retrieves the sync watermark.
// Returns 0 if no pull has completed yet.
func (s *Storage) GetCursor(ctx context.Context) (int64, error) {
	var seq int64

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		data := bucket.Get([]byte(keySyncCursor))
		if data == nil {
			seq = 0
			return nil
		}

		seq = int64(binary.BigEndian.Uint64(data))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get sync cursor: %w", err)
	}

	return seq, nil
}

// SaveMetrics persists the sync metrics record
func (s *Storage) SaveMetrics(ctx context.Context, m *models.SyncMetrics) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal metrics: %w", err)
		}

		if err := bucket.Put([]byte(keySyncMetrics), data); err != nil {
			return fmt.Errorf("failed to save metrics: %w", err)
		}

		return nil
	})
}

// GetMetrics retrieves the sync metrics record, zero-valued if none exists
func (s *Storage) GetMetrics(ctx context.Context) (*models.SyncMetrics, error) {
	metrics := &models.SyncMetrics{}

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		data := bucket.Get([]byte(keySyncMetrics))
		if data == nil {
			return nil
		}

		if err := json.Unmarshal(data, metrics); err != nil {
			return fmt.Errorf("failed to unmarshal metrics: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return metrics, nil
}
