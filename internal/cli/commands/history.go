package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/render"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Format string
	Mode   string
	State  string
	Limit  int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent submissions",
		Long: `List the submissions recorded in the local history database.

Every query, update and graph enumeration is recorded with its target,
graph scope, duration and outcome. Result rows are never stored.`,
		Example: `  # Last 20 submissions
  parq history

  # Failed updates only
  parq history --mode update --state failure

  # Show one entry in full
  parq history show 3f2a`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json, yaml (default: --output)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Only entries of this mode: query, update, graphs")
	cmd.Flags().StringVar(&opts.State, "state", "", "Only entries in this state: success, failure, stale")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"query", "update", "graphs"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("state", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{history.StateSuccess, history.StateFailure, history.StateStale}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newHistoryShowCommand(opts))
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

// historyContext opens the store or explains why there is none.
func historyContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	if cc.History == nil {
		cleanup()
		return nil, nil, fmt.Errorf("history is disabled (set history.enabled in parq.yaml)")
	}
	return cc, cleanup, nil
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc, cleanup, err := historyContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cc.WithFormat(opts.Format); err != nil {
		return err
	}

	entries, err := cc.History.Recent(cmd.Context(), history.Filter{
		Mode:  opts.Mode,
		State: opts.State,
		Limit: opts.Limit,
	})
	if err != nil {
		return err
	}

	switch cc.Format {
	case render.FormatJSON:
		return writeEntriesJSON(cc, entries)
	case render.FormatYAML:
		return writeEntriesYAML(cc, entries)
	}

	if len(entries) == 0 {
		cc.Renderer.Println("no submissions recorded")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cc.Renderer.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "When", "Mode", "State", "Rows", "Duration", "Graph", "Payload"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			shortID(e.ID),
			e.SubmittedAt.Format(time.DateTime),
			e.Mode,
			e.State,
			e.Rows,
			e.Duration.Round(time.Millisecond),
			e.Graph,
			oneLine(e.Payload, 48),
		})
	}
	t.Render()
	return nil
}

func newHistoryShowCommand(opts *HistoryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one submission in full",
		Long:  "Show one recorded submission. The id may be any unique prefix.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := historyContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.WithFormat(opts.Format); err != nil {
				return err
			}

			e, err := cc.History.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch cc.Format {
			case render.FormatJSON:
				return writeEntriesJSON(cc, e)
			case render.FormatYAML:
				return writeEntriesYAML(cc, e)
			}

			r := cc.Renderer
			r.Header(e.ID)
			r.Printf("mode:      %s\n", e.Mode)
			r.Printf("request:   %s %s\n", e.Method, e.Target)
			if e.Graph != "" {
				r.Printf("graph:     %s\n", e.Graph)
			}
			r.Printf("submitted: %s\n", e.SubmittedAt.Format(time.RFC3339))
			r.Printf("duration:  %s\n", e.Duration.Round(time.Millisecond))
			r.Printf("state:     %s\n", e.State)
			if e.Reason != "" {
				r.Printf("reason:    %s\n", e.Reason)
			}
			if e.Mode != "update" {
				r.Printf("rows:      %d\n", e.Rows)
			}
			r.Println()
			r.Println(strings.TrimRight(e.Payload, "\n"))
			return nil
		},
	}
}

func newHistoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := historyContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := cc.History.Clear(cmd.Context())
			if err != nil {
				return err
			}
			cc.Renderer.Success(fmt.Sprintf("removed %d entries", n))
			return nil
		},
	}
}

func writeEntriesJSON(cc *CommandContext, v any) error {
	enc := json.NewEncoder(cc.Renderer.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEntriesYAML(cc *CommandContext, v any) error {
	enc := yaml.NewEncoder(cc.Renderer.Writer())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// oneLine collapses whitespace and cuts s to at most n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
