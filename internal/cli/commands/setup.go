package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/parq/internal/cli/config"
	"github.com/leapstack-labs/parq/internal/cli/output"
	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
	"github.com/leapstack-labs/parq/internal/view"
)

// cliWorkspace names the single workspace a command works in.
const cliWorkspace = "cli"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Endpoint  *endpoint.Endpoint
	Transport endpoint.Transport
	// History is nil when history is disabled.
	History  *history.Store
	Renderer *output.Renderer
	Format   render.Format
}

// NewCommandContext creates a CommandContext with the endpoint and the
// history store. Returns the context and a cleanup function that must be
// called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc, err := NewCommandContextWithoutHistory(cmd)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if cc.Cfg.History.Enabled {
		store, err := history.Open(cc.Cfg.History.Path)
		if err != nil {
			// History is best effort; the endpoint is still usable.
			cc.Logger.Warn("history disabled", slog.String("error", err.Error()))
		} else {
			cc.History = store
			cleanup = func() { _ = store.Close() }
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutHistory creates a CommandContext that never
// opens the history database.
func NewCommandContextWithoutHistory(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())

	ep, err := endpoint.New(cfg.Endpoint.URL, cfg.Endpoint.QueryPath, cfg.Endpoint.UpdatePath)
	if err != nil {
		return nil, err
	}

	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Cfg:       cfg,
		Logger:    logger,
		Endpoint:  ep,
		Transport: &http.Client{Timeout: cfg.Endpoint.Timeout},
		Renderer:  output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		Format:    format,
	}, nil
}

// Settings returns the workspace settings the config describes.
func (c *CommandContext) Settings() workspace.Settings {
	return workspace.Settings{
		Prefixes:   view.DefaultPrefixes().With(c.Cfg.Prefixes),
		HideMaster: c.Cfg.Graphs.HideMaster,
		History:    c.History,
		Logger:     c.Logger,
	}
}

// Workspace builds the views a command submits through.
func (c *CommandContext) Workspace() *workspace.Workspace {
	return workspace.New(cliWorkspace, c.Endpoint, c.Transport, c.Settings())
}

// WithFormat overrides the configured output format when name is set.
func (c *CommandContext) WithFormat(name string) error {
	if name == "" {
		return nil
	}
	f, err := render.ParseFormat(name)
	if err != nil {
		return err
	}
	c.Format = f
	return nil
}

// getConfig returns the current configuration, loading it from the
// environment when no root command has run.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

// submitAndWait runs v's buffer to completion on the calling goroutine.
func submitAndWait(ctx context.Context, v *view.Submission) request.Outcome {
	ctrl := v.Controller()
	ctrl.Settle(ctrl.Run(ctx, v.Begin()))
	return v.Outcome()
}

// failure turns a failed outcome into the command's error.
func failure(what string, o request.Outcome) error {
	if o.State != request.StateFailure {
		return nil
	}
	return fmt.Errorf("%s failed: %s", what, o.Reason)
}

// readPayload resolves the text to submit: arguments first, then the
// input file, then piped stdin. ok is false when none applies.
func readPayload(cmd *cobra.Command, args []string, input string) (payload string, ok bool, err error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), true, nil
	case input == "-":
		return readAll(cmd.InOrStdin())
	case input != "":
		content, err := os.ReadFile(input)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(content), true, nil
	case !isTerminal(cmd.InOrStdin()):
		return readAll(cmd.InOrStdin())
	default:
		return "", false, nil
	}
}
