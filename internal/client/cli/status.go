package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show identity, connectivity and sync state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Printf("User:    %s (id %s)\n", a.user.Username, a.user.ID)
			fmt.Printf("Server:  %s\n", opts.Server)
			if a.engine.Online() {
				fmt.Println("Status:  online")
			} else {
				fmt.Println("Status:  offline")
			}

			cursor, err := a.storage.GetCursor(ctx)
			if err != nil {
				return fmt.Errorf("failed to read sync cursor: %w", err)
			}
			fmt.Printf("Cursor:  %d\n", cursor)

			pending, err := a.engine.PendingCount(ctx)
			if err != nil {
				return fmt.Errorf("failed to count outbox items: %w", err)
			}
			fmt.Printf("Outbox:  %d pending\n", pending)

			metrics, err := a.storage.GetMetrics(ctx)
			if err != nil {
				return fmt.Errorf("failed to read sync metrics: %w", err)
			}
			if !metrics.LastSync.IsZero() {
				fmt.Printf("Last sync: %s (%d synced, %d failed, avg %s)\n",
					metrics.LastSync.Local().Format("2006-01-02 15:04:05"),
					metrics.TotalSynced,
					metrics.FailedCount,
					metrics.AvgSyncTime.Round(time.Millisecond))
			}
			return nil
		},
	}
}
