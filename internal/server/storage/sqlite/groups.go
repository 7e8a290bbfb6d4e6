package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/offlinehq/chatsync/internal/server/storage"
)

const groupColumns = `
	g.id, g.name, g.created_by, g.created_at, g.updated_at, g.server_seq,
	u.username
`

// CreateGroup inserts a new group, drawing its server sequence inside the
// same transaction so the sequence is assigned once and only once.
// Returns ErrGroupNameTaken if a different group holds the name.
func (s *Storage) CreateGroup(ctx context.Context, group *storage.Group) (*storage.Group, error) {
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
		INSERT INTO groups (id, name, created_by, created_at, updated_at, server_seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		group.ID,
		group.Name,
		group.CreatedBy,
		group.CreatedAt.Unix(),
		group.UpdatedAt.Unix(),
		seq,
	)
	if err != nil {
		if isUniqueViolation(err, "groups.name") {
			return nil, storage.ErrGroupNameTaken
		}
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group: %w", err)
	}

	created := *group
	created.ServerSeq = seq
	return &created, nil
}

// GetGroupByID retrieves a group by id with the creator username resolved
func (s *Storage) GetGroupByID(ctx context.Context, id string) (*storage.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN users u ON u.id = g.created_by
		WHERE g.id = ?
	`

	group, err := scanGroup(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// ListGroups returns all groups ordered by name
func (s *Storage) ListGroups(ctx context.Context) ([]*storage.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN users u ON u.id = g.created_by
		ORDER BY g.name ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	return scanGroups(rows)
}

// DeleteGroup hard-deletes a group. The schema's ON DELETE CASCADE removes
// the group's messages and memberships in the same statement.
func (s *Storage) DeleteGroup(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrGroupNotFound
	}

	return nil
}

// AddMembership joins a user to a group. Re-joining is a no-op.
func (s *Storage) AddMembership(ctx context.Context, userID, groupID string) error {
	query := `
		INSERT INTO memberships (user_id, group_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, group_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, userID, groupID, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	return nil
}

// ListUserGroupIDs returns the ids of all groups the user belongs to
func (s *Storage) ListUserGroupIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id FROM memberships WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}

// scanner abstracts sql.Row and sql.Rows for the shared scan helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(row scanner) (*storage.Group, error) {
	group := &storage.Group{}
	var createdAt, updatedAt int64

	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.CreatedBy,
		&createdAt,
		&updatedAt,
		&group.ServerSeq,
		&group.CreatedByUsername,
	)
	if err != nil {
		return nil, err
	}

	group.CreatedAt = time.Unix(createdAt, 0).UTC()
	group.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return group, nil
}

func scanGroups(rows *sql.Rows) ([]*storage.Group, error) {
	var groups []*storage.Group

	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return groups, nil
}
