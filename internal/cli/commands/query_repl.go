package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
)

const (
	promptMain = "parq> "
	promptMore = " ...> "
)

// repl is one interactive session over a workspace.
type repl struct {
	cc *CommandContext
	ws *workspace.Workspace
}

func runQueryREPL(cmd *cobra.Command, cc *CommandContext, ws *workspace.Workspace) error {
	ctx := cmd.Context()
	r := &repl{cc: cc, ws: ws}

	// Line history lives next to the submission history.
	var historyFile string
	if cc.Cfg.History.Enabled && cc.Cfg.History.Path != "" {
		historyFile = filepath.Join(filepath.Dir(cc.Cfg.History.Path), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptMain,
		HistoryFile:     historyFile,
		AutoComplete:    r.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	cc.Renderer.Printf("parq REPL (endpoint: %s)\n", cc.Endpoint.QueryURL())
	cc.Renderer.Println("Type .help for commands, .quit to exit")
	cc.Renderer.Println()

	var statement strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			statement.Reset()
			rl.SetPrompt(promptMain)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		trimmed := strings.TrimSpace(line)

		// Dot-commands only count at the start of a statement.
		if statement.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if quit := r.dot(ctx, trimmed); quit {
				break
			}
			continue
		}

		// Accumulate lines until an empty one. SPARQL uses ';' inside
		// patterns, so it cannot end a statement.
		if trimmed != "" {
			statement.WriteString(line)
			statement.WriteString("\n")
			rl.SetPrompt(promptMore)
			continue
		}
		if statement.Len() == 0 {
			continue
		}
		rl.SetPrompt(promptMain)

		text := statement.String()
		statement.Reset()
		if err := runStatement(ctx, cc, r.ws, text); err != nil {
			cc.Renderer.Error(err.Error())
		}
		cc.Renderer.Println()
	}

	return nil
}

// dot runs a dot-command and reports whether the session should end.
func (r *repl) dot(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	out := r.cc.Renderer

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(out.Writer())

	case ".graphs":
		if err := listGraphs(ctx, r.cc, r.ws); err != nil {
			out.Error(err.Error())
		}

	case ".use":
		if len(parts) < 2 {
			r.ws.SelectGraph("")
			out.Println("using the default graph")
			return false
		}
		r.ws.SelectGraph(parts[1])
		out.Printf("using graph %s\n", parts[1])

	case ".prefixes":
		prefixes := r.cc.Settings().Prefixes
		for _, name := range prefixes.Names() {
			out.Printf("%-8s <%s>\n", name+":", prefixes[name])
		}

	case ".format":
		if len(parts) < 2 {
			out.Printf("format: %s\n", r.cc.Format)
			return false
		}
		if err := r.cc.WithFormat(parts[1]); err != nil {
			out.Error(err.Error())
			return false
		}
		out.Printf("format: %s\n", r.cc.Format)

	case ".reset":
		r.ws.Query.Reset()
		r.ws.Update.Reset()
		out.Println(r.ws.Query.Template())

	case ".clear":
		out.Printf("\033[H\033[2J")

	default:
		out.Error(fmt.Sprintf("unknown command %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .graphs          List named graphs
  .use [graph]     Scope statements to a graph (no argument: default graph)
  .prefixes        Show the configured namespace prefixes
  .format [name]   Show or set the output format (` + formatNames() + `)
  .reset           Print the default query template
  .clear           Clear the screen
  .quit / .exit    Exit the REPL

Tips:
  - A statement runs when you enter an empty line
  - INSERT, DELETE and the other update forms are sent as updates
  - Use arrow keys to navigate history
  - Tab completion works for dot-commands and graph names after .use
`
	_, _ = fmt.Fprintln(w, help)
}

func formatNames() string {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// completer completes dot-commands, and graph names from the last
// enumeration after .use.
func (r *repl) completer() *readline.PrefixCompleter {
	graphs := func(string) []string { return r.ws.Graphs.Names() }

	formats := make([]readline.PrefixCompleterInterface, len(render.Formats))
	for i, f := range render.Formats {
		formats[i] = readline.PcItem(string(f))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".graphs"),
		readline.PcItem(".use", readline.PcItemDynamic(graphs)),
		readline.PcItem(".prefixes"),
		readline.PcItem(".format", formats...),
		readline.PcItem(".reset"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
