package cli

import (
	"context"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/tui"
	"github.com/spf13/cobra"
)

func NewBrowseCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse conversations in TUI",
		Long: `Open an interactive terminal UI to browse and search stored conversations.
Press "o" on a conversation to continue it in the chat view.`,
		Example: `  # Browse the default database
  pixel-chat browse

  # Browse a specific database
  pixel-chat browse --db custom.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd.Context(), env.app)
		},
	}

	return cmd
}

func runBrowse(ctx context.Context, a *app.App) error {
	store, err := a.Store(ctx)
	if err != nil {
		return err
	}

	opened, err := tui.NewBrowser(store, store.Path()).Run(ctx)
	if err != nil {
		return err
	}
	if opened == "" {
		return nil
	}
	return runChat(ctx, a, opened, false)
}
