package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/offlinehq/chatsync/internal/server/storage"
)

// CreateUser inserts a new user.
// Returns ErrUsernameTaken on a duplicate username.
func (s *Storage) CreateUser(ctx context.Context, user *storage.User) error {
	query := `
		INSERT INTO users (id, username, created_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.CreatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err, "users.username") {
			return storage.ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByUsername retrieves a user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	query := `
		SELECT id, username, created_at
		FROM users
		WHERE username = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// GetUserByID retrieves a user by id
func (s *Storage) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	query := `
		SELECT id, username, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *Storage) scanUser(row *sql.Row) (*storage.User, error) {
	user := &storage.User{}
	var createdAt int64

	err := row.Scan(&user.ID, &user.Username, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return user, nil
}
