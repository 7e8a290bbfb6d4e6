package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/offlinehq/chatsync/internal/client/backoff"
	"github.com/offlinehq/chatsync/internal/client/storage"
	"github.com/offlinehq/chatsync/internal/models"
)

// Enqueue appends a new pending outbox item. The payload is serialized
// immediately so the queue survives restarts untouched.
func (s *Storage) Enqueue(ctx context.Context, op models.Operation, payload any) (*models.OutboxItem, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	item := &models.OutboxItem{
		ID:        uuid.New().String(),
		Op:        op,
		Payload:   data,
		Status:    models.OutboxPending,
		CreatedAt: time.Now(),
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		itemData, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal outbox item: %w", err)
		}

		if err := bucket.Put([]byte(item.ID), itemData); err != nil {
			return fmt.Errorf("failed to save outbox item: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListRetryable returns items eligible for a flush attempt at now: pending
// or retriable failed items below the retry ceiling whose backoff window
// has elapsed, ordered by creation time.
func (s *Storage) ListRetryable(ctx context.Context, now time.Time) ([]*models.OutboxItem, error) {
	var items []*models.OutboxItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			item := &models.OutboxItem{}
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("failed to unmarshal outbox item: %w", err)
			}

			if item.Status != models.OutboxPending && item.Status != models.OutboxFailed {
				return nil
			}
			if item.RetryCount >= models.MaxRetries {
				return nil
			}
			if !item.LastAttemptAt.IsZero() && now.Sub(item.LastAttemptAt) < backoff.Delay(item.RetryCount) {
				return nil
			}

			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })

	return items, nil
}

// MarkInFlight transitions an item to in-flight and stamps the attempt time
func (s *Storage) MarkInFlight(ctx context.Context, id string, now time.Time) error {
	_, err := s.updateItem(id, func(item *models.OutboxItem) {
		item.Status = models.OutboxInFlight
		item.LastAttemptAt = now
	})
	return err
}

// MarkSynced transitions an item to its terminal synced state
func (s *Storage) MarkSynced(ctx context.Context, id string) error {
	_, err := s.updateItem(id, func(item *models.OutboxItem) {
		item.Status = models.OutboxSynced
		item.LastError = ""
	})
	return err
}

// MarkFailed records a failed attempt. The item returns to pending until
// the retry ceiling is reached, at which point it becomes terminally failed.
func (s *Storage) MarkFailed(ctx context.Context, id string, errMsg string) (*models.OutboxItem, error) {
	return s.updateItem(id, func(item *models.OutboxItem) {
		item.RetryCount++
		item.LastError = errMsg
		if item.RetryCount >= models.MaxRetries {
			item.Status = models.OutboxFailed
		} else {
			item.Status = models.OutboxPending
		}
	})
}

// MarkFailedPermanently transitions an item straight to terminal failed
func (s *Storage) MarkFailedPermanently(ctx context.Context, id string, errMsg string) (*models.OutboxItem, error) {
	return s.updateItem(id, func(item *models.OutboxItem) {
		item.RetryCount = models.MaxRetries
		item.LastError = errMsg
		item.Status = models.OutboxFailed
	})
}

// CountPending returns the number of items awaiting confirmation
func (s *Storage) CountPending(ctx context.Context) (int, error) {
	count := 0

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			item := &models.OutboxItem{}
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("failed to unmarshal outbox item: %w", err)
			}
			if item.Status == models.OutboxPending || item.Status == models.OutboxInFlight {
				count++
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// GetOutboxItem retrieves a single outbox item by id
func (s *Storage) GetOutboxItem(ctx context.Context, id string) (*models.OutboxItem, error) {
	var item *models.OutboxItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrOutboxItemNotFound
		}

		item = &models.OutboxItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal outbox item: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// updateItem applies a mutation to one item inside a single transaction.
// All outbox transitions funnel through here, which makes each of them
// atomic with respect to concurrent scheduler invocations.
func (s *Storage) updateItem(id string, mutate func(*models.OutboxItem)) (*models.OutboxItem, error) {
	var item *models.OutboxItem

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutbox)
		if bucket == nil {
			return fmt.Errorf("outbox bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrOutboxItemNotFound
		}

		item = &models.OutboxItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal outbox item: %w", err)
		}

		// synced is terminal: a confirmed mutation is never resurrected
		if item.Status == models.OutboxSynced {
			return nil
		}

		mutate(item)

		updated, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal outbox item: %w", err)
		}

		if err := bucket.Put([]byte(id), updated); err != nil {
			return fmt.Errorf("failed to update outbox item: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}
