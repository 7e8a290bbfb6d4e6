package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/offlinehq/chatsync/internal/models"
)

// NewGroupsCommand creates the groups listing command
func NewGroupsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "groups",
		Short:         "List mirrored groups",
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

			// Refresh the mirror when reachable; the listing below reads
			// local state either way.
			if _, err := a.engine.Sync(ctx); err != nil {
				fmt.Println("(offline, showing local state)")
			}

			groups, err := a.data.ListGroups(ctx)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Println("No groups yet")
				return nil
			}

			for _, g := range groups {
				fmt.Printf("%s  %s  (by %s)%s\n", g.ID, g.Name, g.CreatedByUsername, seqMarker(g.ServerSeq))
			}
			return nil
		},
	}
}

// seqMarker flags records the server has not confirmed yet
func seqMarker(seq models.ServerSeq) string {
	if seq.Confirmed {
		return ""
	}
	return "  [pending]"
}
