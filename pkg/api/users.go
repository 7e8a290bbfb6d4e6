package api

import "time"

// CreateUserRequest represents a request to register a new user
type CreateUserRequest struct {
	Username string `json:"username"` // desired unique username
}

// User represents a user record as returned by the authority
type User struct {
	CreatedAt time.Time  `json:"createdAt"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	ID        string     `json:"id"`
	Username  string     `json:"username"`
}

// ErrorResponse represents an error body returned by the authority
type ErrorResponse struct {
	Error   string `json:"error"`             // error description
	Message string `json:"message,omitempty"` // optional detail
}
