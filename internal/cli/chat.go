package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/chat"
	"github.com/jasperwreed/pixel-chat/internal/tui"
	"github.com/spf13/cobra"
)

func NewChatCommand(env *environment) *cobra.Command {
	var conversationID string
	var fresh bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the image search agent",
		Long: `Open an interactive chat with the image search agent. Without flags the
conversation linked to the last session is resumed.`,
		Example: `  # Resume where you left off
  pixel-chat chat

  # Start over with a new session
  pixel-chat chat --new

  # Continue a stored conversation
  pixel-chat chat --conversation 6f1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), env.app, conversationID, fresh)
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Stored conversation to continue")
	cmd.Flags().BoolVar(&fresh, "new", false, "Forget the held session and start a new conversation")

	return cmd
}

func NewAskCommand(env *environment) *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Send one message and print the answer",
		Long:  `Send a single message to the agent in the current conversation and print its answer.`,
		Example: `  pixel-chat ask find beach sunset photos
  pixel-chat ask "only the ones with boats" --conversation 6f1c...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd.OutOrStdout(), env.app, strings.Join(args, " "), conversationID)
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Stored conversation to continue")

	return cmd
}

// attach picks the conversation a chat command works on.
func attach(ctx context.Context, a *app.App, conversationID string, fresh bool) (*chat.Controller, error) {
	switch {
	case conversationID != "":
		return a.OpenConversation(ctx, conversationID)
	case fresh:
		return a.StartOver(ctx)
	default:
		return a.Resume(ctx)
	}
}

func runChat(ctx context.Context, a *app.App, conversationID string, fresh bool) error {
	ctrl, err := attach(ctx, a, conversationID, fresh)
	if err != nil {
		return err
	}

	return tui.RunChat(ctx, ctrl, tui.ChatOptions{
		PollInterval: a.Config.PollInterval,
		Reset: func(ctx context.Context) error {
			_, err := a.StartOver(ctx)
			return err
		},
	})
}

func runAsk(ctx context.Context, w io.Writer, a *app.App, query, conversationID string) error {
	ctrl, err := attach(ctx, a, conversationID, false)
	if err != nil {
		return err
	}

	before := len(ctrl.Messages())
	ctrl.SendMessage(ctx, query)

	messages := ctrl.Messages()
	if len(messages) > before {
		printTranscript(w, messages[before:])
	}
	fmt.Fprintf(w, "\nConversation: %s\n", ctrl.ConversationID())

	if err := ctrl.Err(); err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	return nil
}
