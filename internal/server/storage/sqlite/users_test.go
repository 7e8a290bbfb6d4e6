package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinehq/chatsync/internal/server/storage"
)

func TestUserStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	user := createTestUser(t, s, "alice")

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "alice", byName.Username)

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserStorage_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	createTestUser(t, s, "taken")

	err := s.CreateUser(ctx, &storage.User{
		ID:        uuid.New().String(),
		Username:  "taken",
		CreatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, storage.ErrUsernameTaken)
}

func TestUserStorage_NotFound(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	_, err := s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.GetUserByID(ctx, "missing-id")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
