package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/offlinehq/chatsync/internal/client/api"
	"github.com/offlinehq/chatsync/internal/client/data"
	"github.com/offlinehq/chatsync/internal/client/storage"
	"github.com/offlinehq/chatsync/internal/client/storage/boltdb"
	syncengine "github.com/offlinehq/chatsync/internal/client/sync"
	"github.com/offlinehq/chatsync/internal/models"
)

// app bundles the wired client components a command works with
type app struct {
	storage *boltdb.Storage
	api     *api.Client
	engine  *syncengine.Service
	data    data.Service
	user    *models.User
}

// openApp opens the local database, loads the stored identity and wires the
// sync engine around it. The engine starts offline; a single reachability
// probe decides the initial connectivity belief.
func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	boltStorage, err := boltdb.New(ctx, opts.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	user, err := boltStorage.GetSession(ctx)
	if err != nil {
		_ = boltStorage.Close()
		if errors.Is(err, storage.ErrNoSession) {
			return nil, fmt.Errorf("not registered yet, run: chatsync register <username>")
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	apiClient := api.NewClient(opts.Server)

	engine := syncengine.New(syncengine.Config{
		API:      apiClient,
		Mirror:   boltStorage,
		Outbox:   boltStorage,
		Metadata: boltStorage,
		Logger:   slog.Default(),
		UserID:   user.ID,
		Interval: opts.Interval,
	})

	engine.SetOnline(ctx, apiClient.Ping(ctx) == nil)

	return &app{
		storage: boltStorage,
		api:     apiClient,
		engine:  engine,
		data:    data.NewService(engine, boltStorage, user),
		user:    user,
	}, nil
}

// close releases the engine and the database
func (a *app) close() {
	a.engine.Close()
	if err := a.storage.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
