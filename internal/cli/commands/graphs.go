package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
)

// GraphsOptions holds options for the graphs command.
type GraphsOptions struct {
	Format string
	All    bool
}

// NewGraphsCommand creates the graphs command.
func NewGraphsCommand() *cobra.Command {
	opts := &GraphsOptions{}

	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "List the named graphs in the store",
		Long: `List the named graphs the store declares as par:NamedGraph.

Parliament's master graph is hidden unless --all is given or
graphs.hide_master is false.`,
		Example: `  # List named graphs
  parq graphs

  # Include the master graph, as JSON
  parq graphs --all --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraphs(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md, yaml (default: --output)")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Include the master graph")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func runGraphs(cmd *cobra.Command, opts *GraphsOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cc.WithFormat(opts.Format); err != nil {
		return err
	}

	settings := cc.Settings()
	if opts.All {
		settings.HideMaster = false
	}
	ws := workspace.New(cliWorkspace, cc.Endpoint, cc.Transport, settings)
	return listGraphs(cmd.Context(), cc, ws)
}

// listGraphs re-enumerates ws's graphs and prints them, marking the
// graph in use.
func listGraphs(ctx context.Context, cc *CommandContext, ws *workspace.Workspace) error {
	ws.Graphs.Reset()
	o := submitAndWait(ctx, ws.Graphs.Submission)
	if err := failure("graph enumeration", o); err != nil {
		return err
	}

	r := ws.Graphs.RenderList()
	if cc.Format == render.FormatTable && cc.Renderer.IsTTY() {
		cc.Renderer.Header("Named graphs")
		for _, item := range r.Items {
			if item.Selected {
				cc.Renderer.Printf("* %s\n", item.Text)
			} else {
				cc.Renderer.Printf("  %s\n", item.Text)
			}
		}
		cc.Renderer.Println(cc.Renderer.Muted(itemCount(r.Len())))
		return nil
	}
	return cc.Renderer.Rendering(r, cc.Format)
}

func itemCount(n int) string {
	if n == 1 {
		return "(1 graph)"
	}
	return fmt.Sprintf("(%d graphs)", n)
}
