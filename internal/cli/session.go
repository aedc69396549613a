package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/spf13/cobra"
)

func NewEventsCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Fetch new session events once",
		Long: `Poll the event log of the held session once, store the events not seen
before in the linked conversation and print them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd.Context(), cmd.OutOrStdout(), env.app)
		},
	}

	return cmd
}

func NewSessionCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the backend chat session",
		Example: `  # Show the held session
  pixel-chat session show

  # Ask the backend for a new session
  pixel-chat session new

  # Forget the held session
  pixel-chat session reset`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the held session id",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSessionShow(cmd.OutOrStdout(), env.app)
			},
		},
		&cobra.Command{
			Use:   "new",
			Short: "Create a backend session and hold it",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSessionNew(cmd.Context(), cmd.OutOrStdout(), env.app)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Forget the held session id",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := env.app.Session.Clear(); err != nil {
					return fmt.Errorf("failed to clear session: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Session forgotten")
				return nil
			},
		},
	)

	return cmd
}

func runEvents(ctx context.Context, w io.Writer, a *app.App) error {
	ctrl, linked, err := a.AttachLinked(ctx)
	if err != nil {
		return err
	}
	if ctrl.SessionID() == "" {
		fmt.Fprintln(w, "No session held. Send a message first.")
		return nil
	}

	before := len(ctrl.Messages())
	added := ctrl.PollSystemEvents(ctx)
	if added == 0 {
		fmt.Fprintln(w, "No new events.")
		return nil
	}

	events := ctrl.Messages()[before:]
	if !linked {
		if _, err := a.KeepMessages(ctx, events); err != nil {
			return err
		}
	}

	printTranscript(w, events)
	fmt.Fprintf(w, "\n%d new event(s) in session %s\n", added, ctrl.SessionID())
	return nil
}

func runSessionShow(w io.Writer, a *app.App) error {
	id, err := a.Session.Load()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if id == "" {
		fmt.Fprintln(w, "No session held.")
		return nil
	}
	fmt.Fprintf(w, "Session: %s\n", id)
	fmt.Fprintf(w, "Stored in: %s\n", a.Session.Path())
	return nil
}

func runSessionNew(ctx context.Context, w io.Writer, a *app.App) error {
	ctrl, err := a.Chat(ctx)
	if err != nil {
		return err
	}

	id, err := ctrl.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	fmt.Fprintf(w, "✓ New session: %s\n", id)
	return nil
}
