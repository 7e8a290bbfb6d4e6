package handlers

import (
	"log/slog"
	"net/http"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	logger *slog.Logger
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
	}
}

// HealthResponse represents the health check response body
type HealthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /healthz. Clients also use this endpoint as a cheap
// reachability probe before attempting a direct write.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, HealthResponse{Status: "ok"}, http.StatusOK)
}
