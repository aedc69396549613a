package cli

import (
	"fmt"
	"os"

	"github.com/jasperwreed/pixel-chat/internal/app"
	"github.com/jasperwreed/pixel-chat/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// environment carries the process-wide App to every command. It is filled
// in by the root command before any subcommand runs.
type environment struct {
	dbPath  string
	apiURL  string
	verbose bool

	app      *app.App
	closeLog func() error
}

// interactive commands own the terminal, so logs go to the file only.
var interactive = map[string]bool{
	"chat":   true,
	"browse": true,
}

func (e *environment) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if e.dbPath != "" {
		cfg.DBPath = e.dbPath
	}
	if e.apiURL != "" {
		cfg.APIURL = e.apiURL
	}

	console := e.verbose && !interactive[cmd.Name()]
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel, console)
	e.closeLog = closeLog
	e.app = app.New(cfg, logger)

	logger.Debug("starting command", "command", cmd.CommandPath(), "db", cfg.DBPath, "api", cfg.APIURL)
	return nil
}

// teardown may run twice when a command fails; the second call is a no-op.
func (e *environment) teardown() {
	if e.app != nil {
		if err := e.app.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
		e.app = nil
	}
	if e.closeLog != nil {
		_ = e.closeLog()
		e.closeLog = nil
	}
}

func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *environment) {
	env := &environment{}

	rootCmd := &cobra.Command{
		Use:   "pixel-chat",
		Short: "Terminal client for a conversational image search service",
		Long: `Pixel Chat - Ask an image search agent for photos in plain language.
Conversations are kept locally and can be browsed, searched and resumed.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return env.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			env.teardown()
		},
	}

	rootCmd.PersistentFlags().StringVar(&env.dbPath, "db", "", "Path to database file (default: ~/.pixel-chat/conversations.db)")
	rootCmd.PersistentFlags().StringVar(&env.apiURL, "api", "", "Backend base URL (default: $PIXELCHAT_API_URL or http://localhost:8000/api/v1)")
	rootCmd.PersistentFlags().BoolVarP(&env.verbose, "verbose", "v", false, "Log to stderr as well as the log file")

	rootCmd.AddCommand(
		NewChatCommand(env),
		NewAskCommand(env),
		NewListCommand(env),
		NewExportCommand(env),
		NewDeleteCommand(env),
		NewClearCommand(env),
		NewFindCommand(env),
		NewStatsCommand(env),
		NewBrowseCommand(env),
		NewEventsCommand(env),
		NewSessionCommand(env),
		NewImagesCommand(env),
		NewWatchCommand(env),
	)

	return rootCmd, env
}

func Execute() {
	rootCmd, env := newRootCommand()
	err := rootCmd.Execute()
	env.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
