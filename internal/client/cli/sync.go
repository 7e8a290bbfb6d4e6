package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSyncCommand creates the one-shot sync command
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sync",
		Short:         "Run one sync cycle now",
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

			if !a.engine.Online() {
				return fmt.Errorf("server %s is not reachable", opts.Server)
			}

			result, err := a.engine.Sync(ctx)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}
			if result == nil {
				fmt.Println("Sync already in progress")
				return nil
			}

			fmt.Printf("Synced: %d pushed, %d applied\n", result.Flushed, result.Applied)

			pending, err := a.engine.PendingCount(ctx)
			if err == nil && pending > 0 {
				fmt.Printf("%d item(s) still pending retry\n", pending)
			}
			return nil
		},
	}
}
