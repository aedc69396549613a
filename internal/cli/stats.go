package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/models"
	"github.com/spf13/cobra"
)

func NewStatsCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics about stored conversations",
		Long:  `Display counts of stored conversations, messages and returned images.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd.OutOrStdout(), env.app)
		},
	}

	return cmd
}

func runStats(ctx context.Context, w io.Writer, a *app.App) error {
	store, err := a.Store(ctx)
	if err != nil {
		return err
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	fmt.Fprintln(w, "Pixel Chat Statistics")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "\nTotal Conversations: %d\n", stats.TotalConversations)
	fmt.Fprintf(w, "Total Messages: %d\n", stats.TotalMessages)
	fmt.Fprintf(w, "Images Returned: %d\n", stats.TotalImages)
	fmt.Fprintf(w, "Linked Sessions: %d\n", stats.LinkedSessions)

	if stats.TotalMessages > 0 {
		fmt.Fprintln(w, "\nMessages by Type:")
		for _, t := range []models.MessageType{models.MessageUser, models.MessageAgent, models.MessageSystem} {
			fmt.Fprintf(w, "  %s: %d\n", t, stats.TypeBreakdown[t])
		}
	}

	if sessionID, err := a.Session.Load(); err == nil && sessionID != "" {
		fmt.Fprintf(w, "\nCurrent Session: %s\n", sessionID)
	}

	return nil
}
