package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/jasperwreed/pixel-chat/internal/search"
	"github.com/spf13/cobra"
)

func NewFindCommand(env *environment) *cobra.Command {
	var limit int
	var showContext bool
	var sessionID string
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Search stored conversations",
		Long:  `Search the text of every stored message using full-text search.`,
		Example: `  # Find conversations about beaches
  pixel-chat find beach sunset

  # Only the last day, limited results
  pixel-chat find "mountain lake" --since 24h --limit 5

  # Only conversations linked to one backend session
  pixel-chat find dogs --session 3f2a...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			filters := search.Filters{SessionID: sessionID}
			if since > 0 {
				filters.Since = time.Now().Add(-since)
			}
			return runFind(cmd.Context(), cmd.OutOrStdout(), env.app, query, limit, showContext, filters)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&showContext, "context", false, "Show the full matching message")
	cmd.Flags().StringVar(&sessionID, "session", "", "Only conversations linked to this backend session")
	cmd.Flags().DurationVar(&since, "since", 0, "Only conversations updated within this duration (e.g. 24h)")

	return cmd
}

func runFind(ctx context.Context, w io.Writer, a *app.App, query string, limit int, showContext bool, filters search.Filters) error {
	store, err := a.Store(ctx)
	if err != nil {
		return err
	}

	searcher := search.NewSearcher(store)
	var results []models.SearchResult
	if filters.IsZero() {
		results, err = searcher.Search(ctx, query, limit)
	} else {
		results, err = searcher.SearchWithFilters(ctx, query, limit, filters)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "Found %d result(s) for '%s':\n\n", len(results), query)

	for i, result := range results {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, result.Conversation.ID, result.Conversation.Title)
		fmt.Fprintf(w, "   Messages: %d | %s\n", result.Conversation.MessageCount, result.Conversation.UpdatedAt.Local().Format("2006-01-02 15:04"))

		snippet := result.Snippet
		if showContext {
			fmt.Fprintf(w, "\n   %s\n", strings.ReplaceAll(snippet, "\n", "\n   "))
		} else {
			if r := []rune(snippet); len(r) > 100 {
				snippet = string(r[:100]) + "..."
			}
			fmt.Fprintf(w, "   %s\n", snippet)
		}
		fmt.Fprintln(w)
	}

	return nil
}
