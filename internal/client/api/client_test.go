package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinehq/chatsync/pkg/api"
)

func TestClient_CreateGroup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/groups", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.CreateGroupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.Group{
			ID: req.ID, Name: req.Name, CreatedBy: req.CreatedBy, ServerSeq: 5,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	group, err := c.CreateGroup(context.Background(), api.CreateGroupRequest{
		ID: "g1", Name: "general", CreatedBy: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "g1", group.ID)
	assert.Equal(t, int64(5), group.ServerSeq)
}

func TestClient_ErrorResponseBecomesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "group name already exists"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateGroup(context.Background(), api.CreateGroupRequest{ID: "g1", Name: "general"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, http.StatusConflict, StatusOf(err))
	assert.Contains(t, err.Error(), "group name already exists")
}

func TestClient_MessageEventsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/messages", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "42", q.Get("since"))
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "u1", q.Get("userId"))

		_ = json.NewEncoder(w).Encode(api.MessageEventsResponse{
			Events: []api.MessageEvent{{ID: "m1", ServerSeq: 43}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	events, err := c.MessageEvents(context.Background(), 42, 100, "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(43), events[0].ServerSeq)
}

func TestClient_PingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsRetryable(err), "a connection failure is retryable")
}
