package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
	"github.com/leapstack-labs/parq/internal/view"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
	Graph  string
	Watch  bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SPARQL]",
		Short: "Run a SPARQL query against the endpoint",
		Long: `Run a SPARQL query against the configured endpoint and print the results.

The query text comes from the arguments, from --input, or from piped stdin.
When invoked without any of these on a terminal, enters interactive REPL mode.`,
		Example: `  # Run a query
  parq query 'SELECT * WHERE { ?s ?p ?o } LIMIT 10'

  # Read the query from a file, scoped to a named graph
  parq query --input people.rq --graph urn:graph:people

  # Re-run the file every time it is saved
  parq query --input people.rq --watch

  # Output as CSV
  parq query 'SELECT ?s WHERE { ?s a ?t }' --format csv

  # Interactive mode
  parq query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, csv, md, yaml (default: --output)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the query from a file (- for stdin)")
	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", "", "Scope the query to a named graph")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run the --input file whenever it changes")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cc.WithFormat(opts.Format); err != nil {
		return err
	}

	ws := cc.Workspace()
	if opts.Graph != "" {
		ws.SelectGraph(opts.Graph)
	}

	if opts.Watch {
		if opts.Input == "" || opts.Input == "-" {
			return fmt.Errorf("--watch needs --input FILE")
		}
		return runWatch(cmd.Context(), cc, ws.Query, opts.Input)
	}

	payload, ok, err := readPayload(cmd, args, opts.Input)
	if err != nil {
		return err
	}
	if !ok {
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cc, ws)
	}
	if strings.TrimSpace(payload) == "" {
		return fmt.Errorf("no query given")
	}

	return executeAndRender(cmd.Context(), cc, ws.Query, payload)
}

// executeAndRender submits payload through v and prints the outcome.
func executeAndRender(ctx context.Context, cc *CommandContext, v *view.Submission, payload string) error {
	v.UpdateBuffer(payload)
	o := submitAndWait(ctx, v)
	if err := failure(string(v.Mode()), o); err != nil {
		return err
	}
	return printOutcome(cc, v, o)
}

func printOutcome(cc *CommandContext, v *view.Submission, o request.Outcome) error {
	if err := cc.Renderer.Rendering(render.Render(o, render.Tabular), cc.Format); err != nil {
		return err
	}
	if cc.Renderer.IsTTY() {
		detail := o.Duration.Round(time.Millisecond).String()
		if g := v.Graph(); g != "" {
			detail += "  graph " + g
		}
		cc.Renderer.StatusLine(string(v.Mode()), detail)
	}
	return nil
}

// runStatement submits text through the view its keyword selects. Used
// where one prompt accepts both queries and updates.
func runStatement(ctx context.Context, cc *CommandContext, ws *workspace.Workspace, text string) error {
	v := ws.Query
	if isUpdate(text) {
		v = ws.Update
	}
	return executeAndRender(ctx, cc, v, text)
}

// updateKeywords open a SPARQL 1.1 update operation.
var updateKeywords = []string{
	"INSERT", "DELETE", "LOAD", "CLEAR", "CREATE", "DROP", "COPY", "MOVE", "ADD", "WITH",
}

// isUpdate reports whether text is an update request, looking past the
// prologue and comments for the first operation keyword.
func isUpdate(text string) bool {
	toks := leadingTokens(text, 64)
	for i := 0; i < len(toks); i++ {
		switch word := strings.ToUpper(toks[i]); word {
		case "PREFIX":
			i += 2 // name, IRI
		case "BASE":
			i++ // IRI
		default:
			return slices.Contains(updateKeywords, word)
		}
	}
	return false
}

// leadingTokens splits up to n tokens off the front of text. An IRI in
// angle brackets is one token, '#' outside an IRI comments out the rest
// of the line, and '{' ends a word.
func leadingTokens(text string, n int) []string {
	var toks []string
	for i := 0; i < len(text) && len(toks) < n; {
		switch c := text[i]; {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '#':
			if j := strings.IndexByte(text[i:], '\n'); j >= 0 {
				i += j
			} else {
				i = len(text)
			}
		case c == '<':
			j := strings.IndexByte(text[i:], '>')
			if j < 0 {
				return append(toks, text[i:])
			}
			toks = append(toks, text[i:i+j+1])
			i += j + 1
		case c == '{' || c == '}':
			toks = append(toks, string(c))
			i++
		default:
			j := i
			for j < len(text) && !strings.ContainsRune(" \t\r\n{}<#", rune(text[j])) {
				j++
			}
			toks = append(toks, text[i:j])
			i = j
		}
	}
	return toks
}

func completeFormats(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func readAll(r io.Reader) (string, bool, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(content), true, nil
}
