package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/offlinehq/chatsync/internal/server/storage"
	"github.com/offlinehq/chatsync/pkg/api"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

// EventHandler serves the incremental event feeds clients pull from.
// Both feeds are ordered by server sequence and paged with a since cursor.
type EventHandler struct {
	logger   *slog.Logger
	users    storage.UserStorage
	groups   storage.GroupStorage
	messages storage.MessageStorage
}

// NewEventHandler creates a new event handler
func NewEventHandler(logger *slog.Logger, users storage.UserStorage, groups storage.GroupStorage, messages storage.MessageStorage) *EventHandler {
	return &EventHandler{
		logger:   logger,
		users:    users,
		groups:   groups,
		messages: messages,
	}
}

// Messages handles GET /events/messages?userId=&since=&limit=.
// The feed is privacy-filtered: it only carries messages from groups the
// requesting user is a member of.
func (h *EventHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		sendError(w, "userId is required", http.StatusBadRequest)
		return
	}
	since, limit, err := parseFeedParams(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "unknown user", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	groupIDs, err := h.groups.ListUserGroupIDs(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list user groups", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	events, err := h.messages.MessageEventsSince(ctx, groupIDs, since, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to query message events", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.MessageEventsResponse{Events: make([]api.MessageEvent, 0, len(events))}
	for _, ev := range events {
		apiEvent := api.MessageEvent{
			Type:           api.EventTypeMessage,
			ID:             ev.ID,
			GroupID:        ev.GroupID,
			SenderID:       ev.SenderID,
			SenderUsername: ev.SenderUsername,
			Body:           ev.Body,
			CreatedAt:      ev.CreatedAt,
			ServerSeq:      ev.ServerSeq,
		}
		if ev.Group != nil {
			group := groupToAPI(ev.Group)
			apiEvent.Group = &group
		}
		resp.Events = append(resp.Events, apiEvent)
	}

	sendJSON(w, resp, http.StatusOK)
}

// Groups handles GET /events/groups?since=&limit=. The group feed is
// public: every client mirrors the full group list.
func (h *EventHandler) Groups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	since, limit, err := parseFeedParams(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	groups, err := h.messages.GroupEventsSince(ctx, since, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to query group events", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.GroupEventsResponse{Events: make([]api.GroupEvent, 0, len(groups))}
	for _, g := range groups {
		resp.Events = append(resp.Events, api.GroupEvent{
			Type:              api.EventTypeGroup,
			ID:                g.ID,
			Name:              g.Name,
			CreatedBy:         g.CreatedBy,
			CreatedByUsername: g.CreatedByUsername,
			CreatedAt:         g.CreatedAt,
			UpdatedAt:         g.UpdatedAt,
			ServerSeq:         g.ServerSeq,
		})
	}

	sendJSON(w, resp, http.StatusOK)
}

func parseFeedParams(r *http.Request) (since int64, limit int, err error) {
	limit = defaultEventLimit

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || since < 0 {
			return 0, 0, errors.New("since must be a non-negative integer")
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		if limit > maxEventLimit {
			limit = maxEventLimit
		}
	}

	return since, limit, nil
}
