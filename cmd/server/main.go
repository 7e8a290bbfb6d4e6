package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/offlinehq/chatsync/internal/server"
	"github.com/offlinehq/chatsync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		addr      string
		dbPath    string
		rateLimit int
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:           "chatsyncd",
		Short:         "Sync authority server for chatsync clients",
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildDate, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, dbPath, rateLimit, verbose)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("CHATSYNC_ADDR", ":8080"), "listen address")
	cmd.Flags().StringVar(&dbPath, "db", envOr("CHATSYNC_DB", "chatsync.db"), "path to SQLite database")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 600, "max requests per client per minute (0 disables)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, dbPath string, rateLimit int, verbose bool) error {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("opening database", slog.String("path", dbPath))
	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	srv := server.New(server.Config{
		Addr:            addr,
		RateLimit:       rateLimit,
		RateLimitWindow: time.Minute,
	}, store, logger)

	return srv.Run(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
