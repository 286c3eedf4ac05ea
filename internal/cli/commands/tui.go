package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/parq/internal/tui"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
)

// TUIOptions holds options for the tui command.
type TUIOptions struct {
	Graph   string
	LogFile string
}

// NewTUICommand creates the tui command.
func NewTUICommand() *cobra.Command {
	opts := &TUIOptions{}

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the terminal console",
		Long: `Start a full-screen terminal console with query, update and graph tabs.

Logs would corrupt the screen, so they are discarded unless --log-file
is given.`,
		Example: `  # Start the console
  parq tui

  # Start scoped to a graph, logging to a file
  parq tui --graph urn:graph:people --log-file parq.log -v`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", "", "Start scoped to a named graph")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "Write logs to this file")

	return cmd
}

func runTUI(cmd *cobra.Command, opts *TUIOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	logger := slog.New(slog.DiscardHandler)
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()

		level := slog.LevelInfo
		if cc.Cfg.Verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}
	cc.Logger = logger

	ws := workspace.New(cliWorkspace, cc.Endpoint, cc.Transport, cc.Settings())
	if opts.Graph != "" {
		ws.SelectGraph(opts.Graph)
	}
	return tui.Run(cmd.Context(), ws)
}
