package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCreateGroupCommand creates the create-group command
func NewCreateGroupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create-group <name>",
		Short:         "Create a group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			group, err := a.data.CreateGroup(ctx, args[0])
			if err != nil {
				return err
			}

			if group.ServerSeq.Confirmed {
				fmt.Printf("Created group %s (id %s)\n", group.Name, group.ID)
			} else {
				fmt.Printf("Queued group %s (id %s), will sync when online\n", group.Name, group.ID)
			}
			return nil
		},
	}
}

// NewDeleteGroupCommand creates the delete-group command
func NewDeleteGroupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete-group <group-id>",
		Short:         "Delete a group you created",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.data.DeleteGroup(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println("Group deleted")
			return nil
		},
	}
}

// NewJoinCommand creates the join command
func NewJoinCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "join <group-id>",
		Short:         "Join a group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.data.JoinGroup(ctx, args[0]); err != nil {
				return err
			}

			fmt.Println("Joined group")
			return nil
		},
	}
}
