package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/offlinehq/chatsync/internal/server/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func createTestUser(t *testing.T, s *Storage, username string) *storage.User {
	t.Helper()
	user := &storage.User{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createTestGroup(t *testing.T, s *Storage, name, createdBy string) *storage.Group {
	t.Helper()
	now := time.Now().UTC()
	created, err := s.CreateGroup(context.Background(), &storage.Group{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return created
}

func createTestMessage(t *testing.T, s *Storage, groupID, senderID, body string) *storage.Message {
	t.Helper()
	created, err := s.CreateMessage(context.Background(), &storage.Message{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return created
}

func TestStorage_SequenceIsTotalAcrossRecordKinds(t *testing.T) {
	s := setupTestStorage(t)

	user := createTestUser(t, s, "alice")
	group := createTestGroup(t, s, "general", user.ID)
	msg1 := createTestMessage(t, s, group.ID, user.ID, "first")
	group2 := createTestGroup(t, s, "random", user.ID)
	msg2 := createTestMessage(t, s, group2.ID, user.ID, "second")

	// Groups and messages draw from one counter, so the merged feed has a
	// strict total order.
	seqs := []int64{group.ServerSeq, msg1.ServerSeq, group2.ServerSeq, msg2.ServerSeq}
	for i := 1; i < len(seqs); i++ {
		require.Greater(t, seqs[i], seqs[i-1], "sequence must strictly increase across record kinds")
	}
}
