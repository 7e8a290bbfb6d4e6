// Package cli implements the chatsync command line client
package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands
type RootOptions struct {
	Server   string
	DB       string
	Interval time.Duration
	Verbose  bool
}

// NewRootCommand creates the root command for the chatsync CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chatsync",
		Short: "Offline-first group chat client",
		Long: `An offline-first group chat client. Writes land on the server when it is
reachable and queue in a durable outbox otherwise; a background sync loop
replays the queue and pulls the authoritative event feeds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel := slog.LevelWarn
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("CHATSYNC_SERVER", "http://localhost:8080"), "server URL")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", envOr("CHATSYNC_DB", "chatsync-client.db"), "path to local database")
	cmd.PersistentFlags().DurationVar(&opts.Interval, "interval", 10*time.Second, "periodic sync interval for watch")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewGroupsCommand(opts))
	cmd.AddCommand(NewCreateGroupCommand(opts))
	cmd.AddCommand(NewDeleteGroupCommand(opts))
	cmd.AddCommand(NewJoinCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewMessagesCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
