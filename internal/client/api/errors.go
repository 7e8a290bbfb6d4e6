package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError carries the HTTP status of a non-2xx authority response so
// callers can classify it: conflicts are resolvable, 4xx are permanent,
// everything else is retryable.
type StatusError struct {
	Message    string
	StatusCode int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// StatusOf extracts the HTTP status from an error chain.
// Returns 0 for transport-level errors that never reached the server.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsConflict reports whether the error is a 409 duplicate-id/name response.
// A conflict means the mutation (or its name) already landed; it is resolved
// by adopting the canonical record, not retried.
func IsConflict(err error) bool {
	return StatusOf(err) == http.StatusConflict
}

// IsPermanent reports whether the error must not be retried automatically:
// validation (400), authorization (403) and not-found (404) responses.
func IsPermanent(err error) bool {
	switch StatusOf(err) {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// IsRetryable reports whether the error is transient: a network failure or
// a 5xx response. Retryable failures go to the outbox and backoff.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	status := StatusOf(err)
	return status == 0 || status >= 500
}
