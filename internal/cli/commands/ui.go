package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/parq/internal/cli/config"
	"github.com/leapstack-labs/parq/internal/ui"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Port      int
	NoBrowser bool
	StaticDir string
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the parq web console",
		Long: `Start a local web server providing the parq console in the browser.

The console provides:
- A query page with live result tables
- An update page showing the endpoint's acknowledgement
- A graphs page that scopes both to a named graph
- The submission history

Every browser gets its own buffers, results and graph selection.`,
		Example: `  # Start UI on default port
  parq ui

  # Start on custom port
  parq ui --port 3000

  # Start without auto-opening browser
  parq ui --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultUIPort))
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().StringVar(&opts.StaticDir, "static-dir", "", "Serve static assets from this directory instead of the embedded copy")

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// CLI flags override config file
	port := cc.Cfg.UI.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	autoOpen := cc.Cfg.UI.AutoOpen && !opts.NoBrowser

	if cc.Cfg.UI.SessionSecret == config.DefaultSessionSecret {
		cc.Logger.Warn("using the built-in session secret; set ui.session_secret or PARQ_UI_SESSION_SECRET")
	}

	server := ui.NewServer(ui.Config{
		Endpoint:      cc.Endpoint,
		Transport:     cc.Transport,
		Workspace:     cc.Settings(),
		History:       cc.History,
		Port:          port,
		SessionSecret: cc.Cfg.UI.SessionSecret,
		StaticDir:     opts.StaticDir,
		Logger:        cc.Logger,
		MaxWorkspaces: cc.Cfg.UI.MaxWorkspaces,
		WorkspaceIdle: cc.Cfg.UI.WorkspaceIdle,
	})

	// Open browser if configured
	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	cc.Renderer.Printf("Starting UI server on http://localhost:%d (endpoint %s)\n", port, cc.Endpoint.QueryURL())
	cc.Renderer.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
