package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/offlinehq/chatsync/internal/server/storage"
)

// CreateMessage inserts a new message, drawing its server sequence inside
// the same transaction
func (s *Storage) CreateMessage(ctx context.Context, msg *storage.Message) (*storage.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	seq, err := nextSeq(tx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO messages (id, group_id, sender_id, body, created_at, server_seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		msg.ID,
		msg.GroupID,
		msg.SenderID,
		msg.Body,
		msg.CreatedAt.Unix(),
		seq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	created := *msg
	created.ServerSeq = seq
	return &created, nil
}

// GetMessageByID retrieves a message by id with the sender username resolved
func (s *Storage) GetMessageByID(ctx context.Context, id string) (*storage.Message, error) {
	query := `
		SELECT m.id, m.group_id, m.sender_id, m.body, m.created_at, m.server_seq, u.username
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = ?
	`

	msg := &storage.Message{}
	var createdAt int64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.GroupID,
		&msg.SenderID,
		&msg.Body,
		&createdAt,
		&msg.ServerSeq,
		&msg.SenderUsername,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	msg.CreatedAt = time.Unix(createdAt, 0).UTC()
	return msg, nil
}

// MessageEventsSince returns messages in the given groups with
// server_seq > since, ascending, each carrying a snapshot of its group
func (s *Storage) MessageEventsSince(ctx context.Context, groupIDs []string, since int64, limit int) ([]*storage.MessageEvent, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(groupIDs)), ",")
	query := `
		SELECT m.id, m.group_id, m.sender_id, m.body, m.created_at, m.server_seq, su.username,
		       g.id, g.name, g.created_by, g.created_at, g.updated_at, g.server_seq, cu.username
		FROM messages m
		JOIN users su ON su.id = m.sender_id
		JOIN groups g ON g.id = m.group_id
		JOIN users cu ON cu.id = g.created_by
		WHERE m.group_id IN (` + placeholders + `) AND m.server_seq > ?
		ORDER BY m.server_seq ASC
		LIMIT ?
	`

	args := make([]any, 0, len(groupIDs)+2)
	for _, id := range groupIDs {
		args = append(args, id)
	}
	args = append(args, since, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query message events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []*storage.MessageEvent
	for rows.Next() {
		ev := &storage.MessageEvent{Group: &storage.Group{}}
		var msgCreatedAt, grpCreatedAt, grpUpdatedAt int64

		err := rows.Scan(
			&ev.ID,
			&ev.GroupID,
			&ev.SenderID,
			&ev.Body,
			&msgCreatedAt,
			&ev.ServerSeq,
			&ev.SenderUsername,
			&ev.Group.ID,
			&ev.Group.Name,
			&ev.Group.CreatedBy,
			&grpCreatedAt,
			&grpUpdatedAt,
			&ev.Group.ServerSeq,
			&ev.Group.CreatedByUsername,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message event: %w", err)
		}

		ev.CreatedAt = time.Unix(msgCreatedAt, 0).UTC()
		ev.Group.CreatedAt = time.Unix(grpCreatedAt, 0).UTC()
		ev.Group.UpdatedAt = time.Unix(grpUpdatedAt, 0).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return events, nil
}

// GroupEventsSince returns groups with server_seq > since, ascending
func (s *Storage) GroupEventsSince(ctx context.Context, since int64, limit int) ([]*storage.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN users u ON u.id = g.created_by
		WHERE g.server_seq > ?
		ORDER BY g.server_seq ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query group events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanGroups(rows)
}
