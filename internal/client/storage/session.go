package storage

import (
	"context"
	"errors"

	"github.com/offlinehq/chatsync/internal/models"
)

// ErrNoSession indicates that no user identity is stored locally
var ErrNoSession = errors.New("no local user session")

// SessionStorage persists the identity the client acts as. There is no
// authentication layer; the session is just the registered user record.
type SessionStorage interface {
	// SaveSession stores the current user identity
	SaveSession(ctx context.Context, user *models.User) error

	// GetSession retrieves the current user identity.
	// Returns ErrNoSession if the client has not registered yet.
	GetSession(ctx context.Context) (*models.User, error)

	// ClearSession removes the stored identity
	ClearSession(ctx context.Context) error
}
