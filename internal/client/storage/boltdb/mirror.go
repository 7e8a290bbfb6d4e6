package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/offlinehq/chatsync/internal/client/storage"
	"github.com/offlinehq/chatsync/internal/models"
)

// membershipKey builds the composite key of a membership record
func membershipKey(userID, groupID string) []byte {
	return []byte(userID + "/" + groupID)
}

// SaveGroup inserts or replaces a group record
func (s *Storage) SaveGroup(ctx context.Context, group *models.Group) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketGroups)
		if bucket == nil {
			return fmt.Errorf("groups bucket not found")
		}

		data, err := json.Marshal(group)
		if err != nil {
			return fmt.Errorf("failed to marshal group: %w", err)
		}

		if err := bucket.Put([]byte(group.ID), data); err != nil {
			return fmt.Errorf("failed to save group: %w", err)
		}

		return nil
	})
}

// GetGroup retrieves a group by id
func (s *Storage) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var group *models.Group

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketGroups)
		if bucket == nil {
			return fmt.Errorf("groups bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrGroupNotFound
		}

		group = &models.Group{}
		if err := json.Unmarshal(data, group); err != nil {
			return fmt.Errorf("failed to unmarshal group: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// ListGroups returns all mirrored groups sorted by name
func (s *Storage) ListGroups(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketGroups)
		if bucket == nil {
			return fmt.Errorf("groups bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			group := &models.Group{}
			if err := json.Unmarshal(v, group); err != nil {
				return fmt.Errorf("failed to unmarshal group: %w", err)
			}
			groups = append(groups, group)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	return groups, nil
}

// DeleteGroupCascade removes a group with all dependent messages and
// memberships in a single transaction. No dependent record is observable
// afterward. Deleting an absent group is a no-op.
func (s *Storage) DeleteGroupCascade(ctx context.Context, groupID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		groupsB := tx.Bucket(bucketGroups)
		messagesB := tx.Bucket(bucketMessages)
		membershipsB := tx.Bucket(bucketMemberships)
		if groupsB == nil || messagesB == nil || membershipsB == nil {
			return fmt.Errorf("mirror buckets not found")
		}

		if err := groupsB.Delete([]byte(groupID)); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}

		// Collect first, delete after: deleting while iterating a bucket
		// cursor invalidates it.
		var doomed [][]byte
		err := messagesB.ForEach(func(k, v []byte) error {
			msg := &models.Message{}
			if err := json.Unmarshal(v, msg); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			if msg.GroupID == groupID {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := messagesB.Delete(k); err != nil {
				return fmt.Errorf("failed to delete message: %w", err)
			}
		}

		doomed = doomed[:0]
		err = membershipsB.ForEach(func(k, v []byte) error {
			m := &models.Membership{}
			if err := json.Unmarshal(v, m); err != nil {
				return fmt.Errorf("failed to unmarshal membership: %w", err)
			}
			if m.GroupID == groupID {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := membershipsB.Delete(k); err != nil {
				return fmt.Errorf("failed to delete membership: %w", err)
			}
		}

		return nil
	})
}

// SaveMessage inserts or replaces a message record
func (s *Storage) SaveMessage(ctx context.Context, msg *models.Message) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMessages)
		if bucket == nil {
			return fmt.Errorf("messages bucket not found")
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		if err := bucket.Put([]byte(msg.ID), data); err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}

		return nil
	})
}

// GetMessage retrieves a message by id
func (s *Storage) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var msg *models.Message

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMessages)
		if bucket == nil {
			return fmt.Errorf("messages bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return storage.ErrMessageNotFound
		}

		msg = &models.Message{}
		if err := json.Unmarshal(data, msg); err != nil {
			return fmt.Errorf("failed to unmarshal message: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// SetMessageStatus updates the local delivery status of a message.
// Missing messages are ignored: a cascading group delete may have removed
// the record while its outbox item was still queued.
func (s *Storage) SetMessageStatus(ctx context.Context, id string, status models.MessageStatus) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMessages)
		if bucket == nil {
			return fmt.Errorf("messages bucket not found")
		}

		data := bucket.Get([]byte(id))
		if data == nil {
			return nil
		}

		msg := &models.Message{}
		if err := json.Unmarshal(data, msg); err != nil {
			return fmt.Errorf("failed to unmarshal message: %w", err)
		}

		msg.Status = status

		updated, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		if err := bucket.Put([]byte(id), updated); err != nil {
			return fmt.Errorf("failed to update message: %w", err)
		}

		return nil
	})
}

// ListMessages returns all messages of a group ordered by creation time
func (s *Storage) ListMessages(ctx context.Context, groupID string) ([]*models.Message, error) {
	var messages []*models.Message

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMessages)
		if bucket == nil {
			return fmt.Errorf("messages bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			msg := &models.Message{}
			if err := json.Unmarshal(v, msg); err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
			if msg.GroupID == groupID {
				messages = append(messages, msg)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return messages, nil
}

// SaveMembership inserts or replaces a membership record
func (s *Storage) SaveMembership(ctx context.Context, m *models.Membership) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMemberships)
		if bucket == nil {
			return fmt.Errorf("memberships bucket not found")
		}

		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal membership: %w", err)
		}

		if err := bucket.Put(membershipKey(m.UserID, m.GroupID), data); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}

		return nil
	})
}

// ListMemberships returns all memberships of a group
func (s *Storage) ListMemberships(ctx context.Context, groupID string) ([]*models.Membership, error) {
	var memberships []*models.Membership

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMemberships)
		if bucket == nil {
			return fmt.Errorf("memberships bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			m := &models.Membership{}
			if err := json.Unmarshal(v, m); err != nil {
				return fmt.Errorf("failed to unmarshal membership: %w", err)
			}
			if m.GroupID == groupID {
				memberships = append(memberships, m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return memberships, nil
}
