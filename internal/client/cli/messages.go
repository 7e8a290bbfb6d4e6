package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/offlinehq/chatsync/internal/models"
)

// NewSendCommand creates the send command
func NewSendCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "send <group-id> <body>...",
		Short:         "Send a message to a group",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.close()

			msg, err := a.data.SendMessage(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			switch msg.Status {
			case models.MessageSent:
				fmt.Printf("Sent (id %s)\n", msg.ID)
			default:
				fmt.Printf("Queued (id %s), will sync when online\n", msg.ID)
			}
			return nil
		},
	}
}

// NewMessagesCommand creates the messages listing command
func NewMessagesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "messages <group-id>",
		Short:         "List mirrored messages of a group",
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

			if _, err := a.engine.Sync(ctx); err != nil {
				fmt.Println("(offline, showing local state)")
			}

			messages, err := a.data.ListMessages(ctx, args[0])
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				fmt.Println("No messages yet")
				return nil
			}

			for _, m := range messages {
				fmt.Printf("[%s] %s: %s%s\n",
					m.CreatedAt.Local().Format("2006-01-02 15:04"),
					m.SenderUsername,
					m.Body,
					statusMarker(m.Status))
			}
			return nil
		},
	}
}

func statusMarker(status models.MessageStatus) string {
	switch status {
	case models.MessageSending:
		return "  [sending]"
	case models.MessageFailed:
		return "  [failed]"
	default:
		return ""
	}
}
