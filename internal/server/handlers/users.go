package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/offlinehq/chatsync/internal/server/storage"
	"github.com/offlinehq/chatsync/internal/validation"
	"github.com/offlinehq/chatsync/pkg/api"
)

// UserHandler handles identity resolution requests
type UserHandler struct {
	logger  *slog.Logger
	storage storage.UserStorage
}

// NewUserHandler creates a new user handler
func NewUserHandler(logger *slog.Logger, storage storage.UserStorage) *UserHandler {
	return &UserHandler{
		logger:  logger,
		storage: storage,
	}
}

// Create handles POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode create user request", slog.Any("error", err))
		sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username",
			slog.String("username", req.Username), slog.Any("error", err))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user := &storage.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			h.logger.WarnContext(ctx, "username already taken", slog.String("username", req.Username))
			sendError(w, "username already taken", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("username", user.Username), slog.String("user_id", user.ID))

	sendJSON(w, userToAPI(user), http.StatusCreated)
}

// GetByUsername handles GET /users/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	h.getUser(w, r, func() (*storage.User, error) {
		return h.storage.GetUserByUsername(r.Context(), r.PathValue("username"))
	})
}

// GetByID handles GET /users/id/{id}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.getUser(w, r, func() (*storage.User, error) {
		return h.storage.GetUserByID(r.Context(), r.PathValue("id"))
	})
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request, lookup func() (*storage.User, error)) {
	user, err := lookup()
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			sendError(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get user", slog.Any("error", err))
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, userToAPI(user), http.StatusOK)
}

func userToAPI(u *storage.User) api.User {
	return api.User{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
