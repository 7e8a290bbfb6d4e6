package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/offlinehq/chatsync/internal/server/storage"
	"github.com/offlinehq/chatsync/internal/validation"
	"github.com/offlinehq/chatsync/pkg/api"
)

// MessageHandler handles message creation requests
type MessageHandler struct {
	logger   *slog.Logger
	users    storage.UserStorage
	groups   storage.GroupStorage
	messages storage.MessageStorage
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(logger *slog.Logger, users storage.UserStorage, groups storage.GroupStorage, messages storage.MessageStorage) *MessageHandler {
	return &MessageHandler{
		logger:   logger,
		users:    users,
		groups:   groups,
		messages: messages,
	}
}

// Create handles POST /messages: an idempotent create keyed by the
// client-generated id. Resubmitting an id that already landed returns the
// existing canonical record, so a retried send never duplicates a message.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		sendError(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateMessageBody(req.Body); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByID(ctx, req.SenderID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "unknown sender", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve sender", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := h.groups.GetGroupByID(ctx, req.GroupID); err != nil {
		if errors.Is(err, storage.ErrGroupNotFound) {
			sendError(w, "group not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to look up group", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Already applied: hand back the canonical record with its original
	// server sequence.
	if existing, err := h.messages.GetMessageByID(ctx, req.ID); err == nil {
		sendJSON(w, messageToAPI(existing), http.StatusOK)
		return
	} else if !errors.Is(err, storage.ErrMessageNotFound) {
		h.logger.ErrorContext(ctx, "failed to look up message", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	msg := &storage.Message{
		ID:        req.ID,
		GroupID:   req.GroupID,
		SenderID:  req.SenderID,
		Body:      req.Body,
		CreatedAt: req.CreatedAt,
	}

	created, err := h.messages.CreateMessage(ctx, msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create message", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if created.SenderUsername == "" {
		if sender, err := h.users.GetUserByID(ctx, created.SenderID); err == nil {
			created.SenderUsername = sender.Username
		}
	}

	h.logger.InfoContext(ctx, "message created",
		slog.String("message_id", created.ID),
		slog.String("group_id", created.GroupID),
		slog.Int64("server_seq", created.ServerSeq))

	sendJSON(w, messageToAPI(created), http.StatusCreated)
}

func messageToAPI(m *storage.Message) api.Message {
	return api.Message{
		ID:             m.ID,
		GroupID:        m.GroupID,
		SenderID:       m.SenderID,
		SenderUsername: m.SenderUsername,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
		ServerSeq:      m.ServerSeq,
	}
}
