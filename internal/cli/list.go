package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/spf13/cobra"
)

func NewListCommand(env *environment) *cobra.Command {
	var limit int
	var search string
	var sortBy string
	var order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored conversations",
		Long:  `List locally stored conversations, most recently updated first.`,
		Example: `  # List recent conversations
  pixel-chat list

  # Oldest first by creation time
  pixel-chat list --sort created --order asc

  # Only conversations whose title or preview mentions beaches
  pixel-chat list --search beach --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := listFilters(search, sortBy, order)
			if err != nil {
				return err
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), env.app, filters, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of conversations to list (0 for all)")
	cmd.Flags().StringVar(&search, "search", "", "Only list conversations whose title or preview contains this text")
	cmd.Flags().StringVar(&sortBy, "sort", "updated", "Sort by: created or updated")
	cmd.Flags().StringVar(&order, "order", "desc", "Sort order: asc or desc")

	return cmd
}

func listFilters(search, sortBy, order string) (models.ConversationFilters, error) {
	filters := models.ConversationFilters{Search: search}

	switch sortBy {
	case "created", "created_at":
		filters.SortBy = models.SortByCreatedAt
	case "updated", "updated_at", "":
		filters.SortBy = models.SortByUpdatedAt
	default:
		return filters, fmt.Errorf("invalid --sort %q: use created or updated", sortBy)
	}

	switch order {
	case "asc":
		filters.SortOrder = models.SortAsc
	case "desc", "":
		filters.SortOrder = models.SortDesc
	default:
		return filters, fmt.Errorf("invalid --order %q: use asc or desc", order)
	}

	return filters, nil
}

func runList(ctx context.Context, w io.Writer, a *app.App, filters models.ConversationFilters, limit int) error {
	store, err := a.Store(ctx)
	if err != nil {
		return err
	}

	conversations, err := store.ListConversations(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(conversations) == 0 {
		fmt.Fprintln(w, "No conversations found.")
		return nil
	}
	if limit > 0 && len(conversations) > limit {
		conversations = conversations[:limit]
	}

	fmt.Fprintf(w, "Conversations:\n\n")

	for _, conv := range conversations {
		fmt.Fprintf(w, "[%s] %s\n", conv.ID, conv.Title)
		fmt.Fprintf(w, "  Messages: %d", conv.MessageCount)
		if conv.ServerSessionID != "" {
			fmt.Fprintf(w, " | Session: %s", conv.ServerSessionID)
		}
		fmt.Fprintf(w, "\n  Updated: %s\n", conv.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		if conv.Preview != "" {
			fmt.Fprintf(w, "  %s\n", conv.Preview)
		}
		fmt.Fprintln(w)
	}

	return nil
}
