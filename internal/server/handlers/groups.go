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

// GroupHandler handles group CRUD and membership requests
type GroupHandler struct {
	logger *slog.Logger
	users  storage.UserStorage
	groups storage.GroupStorage
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(logger *slog.Logger, users storage.UserStorage, groups storage.GroupStorage) *GroupHandler {
	return &GroupHandler{
		logger: logger,
		users:  users,
		groups: groups,
	}
}

// Create handles POST /groups: an idempotent upsert keyed by the
// client-generated id. Resubmitting an id that already landed returns the
// existing canonical record, so a client may safely retry a create whose
// response was lost.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		sendError(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateGroupName(req.Name); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByID(ctx, req.CreatedBy); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "unknown creator", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve creator", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Already applied: hand back the canonical record with its original
	// server sequence.
	if existing, err := h.groups.GetGroupByID(ctx, req.ID); err == nil {
		if err := h.groups.AddMembership(ctx, existing.CreatedBy, existing.ID); err != nil {
			h.logger.WarnContext(ctx, "failed to ensure creator membership", slog.Any("error", err))
		}
		sendJSON(w, groupToAPI(existing), http.StatusOK)
		return
	} else if !errors.Is(err, storage.ErrGroupNotFound) {
		h.logger.ErrorContext(ctx, "failed to look up group", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	group := &storage.Group{
		ID:        req.ID,
		Name:      req.Name,
		CreatedBy: req.CreatedBy,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}

	created, err := h.groups.CreateGroup(ctx, group)
	if err != nil {
		if errors.Is(err, storage.ErrGroupNameTaken) {
			sendError(w, "group name already exists", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create group", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Creator joins automatically
	if err := h.groups.AddMembership(ctx, created.CreatedBy, created.ID); err != nil {
		h.logger.WarnContext(ctx, "failed to add creator membership", slog.Any("error", err))
	}

	if created.CreatedByUsername == "" {
		if creator, err := h.users.GetUserByID(ctx, created.CreatedBy); err == nil {
			created.CreatedByUsername = creator.Username
		}
	}

	h.logger.InfoContext(ctx, "group created",
		slog.String("group_id", created.ID),
		slog.String("name", created.Name),
		slog.Int64("server_seq", created.ServerSeq))

	sendJSON(w, groupToAPI(created), http.StatusCreated)
}

// List handles GET /groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list groups", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Group, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, groupToAPI(g))
	}
	sendJSON(w, resp, http.StatusOK)
}

// Delete handles DELETE /groups/{id}: a hard delete that cascades to the
// group's messages and memberships. Only the creator may delete.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID := r.PathValue("id")

	var req api.DeleteGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "unknown user", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	group, err := h.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, storage.ErrGroupNotFound) {
			sendError(w, "group not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to look up group", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if group.CreatedBy != req.UserID {
		sendError(w, "only the group creator can delete this group", http.StatusForbidden)
		return
	}

	if err := h.groups.DeleteGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrGroupNotFound) {
			sendError(w, "group not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete group", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "group deleted",
		slog.String("group_id", groupID), slog.String("user_id", req.UserID))

	sendJSON(w, groupToAPI(group), http.StatusOK)
}

// Join handles POST /groups/{id}/join. Membership is a set: joining twice
// succeeds without effect.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groupID := r.PathValue("id")

	var req api.JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := h.users.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "unknown user", http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err := h.groups.GetGroupByID(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrGroupNotFound) {
			sendError(w, "group not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to look up group", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.groups.AddMembership(ctx, req.UserID, groupID); err != nil {
		h.logger.ErrorContext(ctx, "failed to add membership", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, api.JoinGroupResponse{Success: true}, http.StatusOK)
}

func groupToAPI(g *storage.Group) api.Group {
	return api.Group{
		ID:                g.ID,
		Name:              g.Name,
		CreatedBy:         g.CreatedBy,
		CreatedByUsername: g.CreatedByUsername,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
		ServerSeq:         g.ServerSeq,
	}
}
