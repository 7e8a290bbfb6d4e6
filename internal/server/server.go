package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/offlinehq/chatsync/internal/server/handlers"
	"github.com/offlinehq/chatsync/internal/server/middleware"
	"github.com/offlinehq/chatsync/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

// Storage bundles the persistence interfaces the server needs
type Storage interface {
	storage.UserStorage
	storage.GroupStorage
	storage.MessageStorage
}

// Config holds server settings
type Config struct {
	Addr            string
	RateLimit       int
	RateLimitWindow time.Duration
}

// Server is the sync authority HTTP server
type Server struct {
	logger *slog.Logger
	http   *http.Server
}

// New assembles the router and middleware chain around the given storage
func New(cfg Config, store Storage, logger *slog.Logger) *Server {
	userHandler := handlers.NewUserHandler(logger, store)
	groupHandler := handlers.NewGroupHandler(logger, store, store)
	messageHandler := handlers.NewMessageHandler(logger, store, store, store)
	eventHandler := handlers.NewEventHandler(logger, store, store, store)
	healthHandler := handlers.NewHealthHandler(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler.Health)

	mux.HandleFunc("POST /users", userHandler.Create)
	mux.HandleFunc("GET /users/{username}", userHandler.GetByUsername)
	mux.HandleFunc("GET /users/id/{id}", userHandler.GetByID)

	mux.HandleFunc("POST /groups", groupHandler.Create)
	mux.HandleFunc("GET /groups", groupHandler.List)
	mux.HandleFunc("DELETE /groups/{id}", groupHandler.Delete)
	mux.HandleFunc("POST /groups/{id}/join", groupHandler.Join)

	mux.HandleFunc("POST /messages", messageHandler.Create)

	mux.HandleFunc("GET /events/messages", eventHandler.Messages)
	mux.HandleFunc("GET /events/groups", eventHandler.Groups)

	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		handler = middleware.RateLimit(cfg.RateLimit, cfg.RateLimitWindow, logger)(handler)
	}
	handler = middleware.LoggingWithSkip(logger, []string{"/healthz"})(handler)
	handler = middleware.Recovery(logger)(handler)

	return &Server{
		logger: logger,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errC := make(chan error, 1)

	go func() {
		s.logger.Info("server listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
