package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// UpdateOptions holds options for the update command.
type UpdateOptions struct {
	Format string
	Input  string
	Graph  string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	opts := &UpdateOptions{}

	cmd := &cobra.Command{
		Use:   "update [SPARQL]",
		Short: "Send a SPARQL update to the endpoint",
		Long: `Send a SPARQL update to the configured endpoint.

The update text comes from the arguments, from --input, or from piped stdin.
It is posted verbatim; the endpoint's acknowledgement is printed as returned.`,
		Example: `  # Insert a triple
  parq update 'INSERT DATA { <urn:ex:a> <urn:ex:p> "x" }'

  # Apply an update file to a named graph
  parq update --input load.ru --graph urn:graph:people`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json (default: --output)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the update from a file (- for stdin)")
	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", "", "Scope the update to a named graph")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func runUpdate(cmd *cobra.Command, args []string, opts *UpdateOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cc.WithFormat(opts.Format); err != nil {
		return err
	}

	payload, ok, err := readPayload(cmd, args, opts.Input)
	if err != nil {
		return err
	}
	if !ok || strings.TrimSpace(payload) == "" {
		return fmt.Errorf("no update given (pass it as an argument, with --input, or on stdin)")
	}

	ws := cc.Workspace()
	if opts.Graph != "" {
		ws.SelectGraph(opts.Graph)
	}
	return executeAndRender(cmd.Context(), cc, ws.Update, payload)
}
