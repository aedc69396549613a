package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/spf13/cobra"
)

func NewDeleteCommand(env *environment) *cobra.Command {
	var conversationID string
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a conversation",
		Long:  `Delete a conversation from the local database.`,
		Example: `  # Delete a conversation with confirmation
  pixel-chat delete --id 6f1c...

  # Delete without confirmation prompt
  pixel-chat delete --id 6f1c... --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewValidator().ValidateConversationID(conversationID); err != nil {
				return err
			}
			return runDelete(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), env.app, conversationID, confirm)
		},
	}

	cmd.Flags().StringVar(&conversationID, "id", "", "Conversation ID to delete")
	cmd.Flags().BoolVar(&confirm, "yes", false, "Skip confirmation prompt")
	cmd.MarkFlagRequired("id")

	return cmd
}

func NewClearCommand(env *environment) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored conversation",
		Long:  `Remove all conversations from the local database and forget the held session id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), env.app, confirm)
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Skip confirmation prompt")

	return cmd
}

func runDelete(ctx context.Context, in io.Reader, w io.Writer, a *app.App, id string, skipConfirm bool) error {
	conversation, err := loadConversation(ctx, a, id)
	if err != nil {
		return err
	}

	if !skipConfirm && !confirmPrompt(in, w, fmt.Sprintf("Delete conversation '%s' (ID: %s)?", conversation.Title, id)) {
		fmt.Fprintln(w, "Cancelled.")
		return nil
	}

	store, err := a.Store(ctx)
	if err != nil {
		return err
	}
	if err := store.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	fmt.Fprintf(w, "✓ Deleted conversation (ID: %s)\n", id)
	return nil
}

func runClear(ctx context.Context, in io.Reader, w io.Writer, a *app.App, skipConfirm bool) error {
	if !skipConfirm && !confirmPrompt(in, w, "Delete ALL stored conversations?") {
		fmt.Fprintln(w, "Cancelled.")
		return nil
	}

	store, err := a.Store(ctx)
	if err != nil {
		return err
	}
	if err := store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}
	if err := a.Session.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Fprintln(w, "✓ Cleared all conversations")
	return nil
}

func confirmPrompt(in io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}
