package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	clientapi "github.com/offlinehq/chatsync/internal/client/api"
	"github.com/offlinehq/chatsync/internal/client/storage/boltdb"
	"github.com/offlinehq/chatsync/internal/models"
	"github.com/offlinehq/chatsync/internal/validation"
	"github.com/offlinehq/chatsync/pkg/api"
)

// NewRegisterCommand creates the register command
func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <username>",
		Short: "Register a username and store the identity locally",
		Long: `Register a username with the server and store the resulting identity in
the local database. Registering an already-taken username adopts the
existing account, so re-running register on a new device is safe.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), opts, args[0])
		},
	}
}

func runRegister(ctx context.Context, opts *RootOptions, username string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}

	boltStorage, err := boltdb.New(ctx, opts.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = boltStorage.Close()
	}()

	apiClient := clientapi.NewClient(opts.Server)

	user, err := apiClient.CreateUser(ctx, api.CreateUserRequest{Username: username})
	if err != nil {
		// Taken username: resolve the existing account instead
		if !clientapi.IsConflict(err) {
			return fmt.Errorf("registration failed: %w", err)
		}
		user, err = apiClient.GetUserByName(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to resolve existing user: %w", err)
		}
	}

	session := &models.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
	if err := boltStorage.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Printf("Registered as %s (id %s)\n", session.Username, session.ID)
	return nil
}
