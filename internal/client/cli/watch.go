package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// reachability probe interval while watching
const probeInterval = 5 * time.Second

// NewWatchCommand creates the watch command: a long-running foreground sync
// loop that probes connectivity, drives periodic cycles and reports
// idle/syncing transitions.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "watch",
		Short:         "Run the sync loop in the foreground",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			id := a.engine.AddListener(func(syncing bool) {
				if syncing {
					fmt.Println("syncing...")
				} else {
					fmt.Println("idle")
				}
			})
			defer a.engine.RemoveListener(id)

			fmt.Printf("Watching as %s, press Ctrl+C to stop\n", a.user.Username)

			go probeConnectivity(ctx, a)

			a.engine.Run(ctx)
			return nil
		},
	}
}

// probeConnectivity keeps the engine's connectivity belief fresh. The
// offline-to-online transition inside SetOnline triggers an immediate sync.
func probeConnectivity(ctx context.Context, a *app) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.engine.SetOnline(ctx, a.api.Ping(ctx) == nil)
		}
	}
}
