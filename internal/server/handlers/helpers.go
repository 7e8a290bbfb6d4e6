package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/offlinehq/chatsync/pkg/api"
)

// sendJSON writes v as a JSON response body with the given status
func sendJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sendError writes a JSON error body with the given status
func sendError(w http.ResponseWriter, msg string, status int) {
	sendJSON(w, api.ErrorResponse{Error: msg}, status)
}
