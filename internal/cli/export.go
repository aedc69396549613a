package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/jasperwreed/pixel-chat/internal/storage"
	"github.com/spf13/cobra"
)

func NewExportCommand(env *environment) *cobra.Command {
	var conversationID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"export"},
		Short:   "Show or export a conversation",
		Long:    `Print a stored conversation as a transcript, or as JSON for sharing or backup.`,
		Example: `  # Print a conversation
  pixel-chat show --id 6f1c...

  # Export to file
  pixel-chat export --id 6f1c... --json > conversation.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := NewValidator().ValidateConversationID(conversationID); err != nil {
				return err
			}
			return runExport(cmd.Context(), cmd.OutOrStdout(), env.app, conversationID, asJSON)
		},
	}

	cmd.Flags().StringVar(&conversationID, "id", "", "Conversation ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the conversation as JSON")
	cmd.MarkFlagRequired("id")

	return cmd
}

func runExport(ctx context.Context, w io.Writer, a *app.App, id string, asJSON bool) error {
	conversation, err := loadConversation(ctx, a, id)
	if err != nil {
		return err
	}

	if asJSON {
		output, err := json.MarshalIndent(conversation, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal conversation: %w", err)
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	fmt.Fprintf(w, "%s\n", conversation.Title)
	fmt.Fprintf(w, "Created: %s\n", conversation.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if conversation.ServerSessionID != "" {
		fmt.Fprintf(w, "Session: %s\n", conversation.ServerSessionID)
	}
	fmt.Fprintln(w, strings.Repeat("─", 40))
	printTranscript(w, conversation.Messages)
	return nil
}

func loadConversation(ctx context.Context, a *app.App, id string) (*models.Conversation, error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}

	conversation, err := store.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation %s: %w", id, storage.ErrNotFound)
	}
	return conversation, nil
}

// printTranscript writes messages as plain text.
func printTranscript(w io.Writer, messages []models.ChatMessage) {
	for _, msg := range messages {
		label := "Agent"
		switch msg.Type {
		case models.MessageUser:
			label = "You"
		case models.MessageSystem:
			label = "Event"
		}

		fmt.Fprintf(w, "\n%s (%s):\n%s\n", label, msg.Timestamp.Local().Format("15:04:05"), msg.Content)
		if msg.ViewURL != "" {
			fmt.Fprintf(w, "  view: %s\n", msg.ViewURL)
		}
		for _, img := range msg.Images {
			printImage(w, img)
		}
		if len(msg.Suggestions) > 0 {
			fmt.Fprintf(w, "  Try: %s\n", strings.Join(msg.Suggestions, " | "))
		}
	}
}

func printImage(w io.Writer, img models.ImageResult) {
	name := img.Metadata.Filename
	if name == "" {
		name = img.ID
	}
	fmt.Fprintf(w, "  [%.2f] %s", img.Score, name)
	if img.PreviewURL != "" {
		fmt.Fprintf(w, "  %s", img.PreviewURL)
	}
	fmt.Fprintln(w)
}
