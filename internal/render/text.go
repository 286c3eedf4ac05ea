package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// Format is a text output format.
type Format string

// Supported text formats.
const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatYAML     Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatYAML}

// ParseFormat resolves a format name. The empty string means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want one of table, json, csv, md, yaml)", s)
	}
}

// WriteText writes r to w in the given format. Placeholders and failures
// are written as their message regardless of format.
func WriteText(w io.Writer, r Rendering, f Format) error {
	switch r.Kind {
	case KindPlaceholder:
		_, err := fmt.Fprintln(w, r.Message)
		return err
	case KindFailure:
		_, err := fmt.Fprintf(w, "error: %s\n", r.Message)
		return err
	case KindAck:
		return writeAck(w, r, f)
	}

	header, rows := r.Header, r.Rows
	if r.Kind == KindList {
		rows = make([][]string, len(r.Items))
		for i, item := range r.Items {
			rows[i] = []string{item.Text}
		}
	}

	switch f {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatCSV:
		return writeCSV(w, header, rows)
	case FormatMarkdown:
		return writeMarkdown(w, header, rows)
	case FormatYAML:
		return writeYAML(w, header, rows)
	default:
		return writeTable(w, header, rows)
	}
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, col := range header {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

// writeJSON emits the SPARQL JSON results document so output can be fed
// back into other SPARQL tooling.
func writeJSON(w io.Writer, r Rendering) error {
	if r.Results == nil {
		return fmt.Errorf("no result set to encode")
	}
	data, err := json.Marshal(r.Results)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeMarkdown(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(header, " | "))
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = escapeMarkdown(cell)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// writeYAML emits a sequence of mappings. Nodes are built by hand so that
// keys keep column order instead of being sorted.
func writeYAML(w io.Writer, header []string, rows [][]string) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range header {
			if i >= len(row) || row[i] == "" {
				continue
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: col},
				&yaml.Node{Kind: yaml.ScalarNode, Value: row[i], Style: yaml.DoubleQuotedStyle},
			)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}); err != nil {
		return err
	}
	return enc.Close()
}

func writeAck(w io.Writer, r Rendering, f Format) error {
	if f == FormatJSON {
		out := map[string]any{"status": r.Ack.StatusCode}
		if r.Ack.Value != nil {
			out["body"] = r.Ack.Value
		} else if text := r.Ack.Text(); text != "" {
			out["body"] = text
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if _, err := fmt.Fprintln(w, r.Message); err != nil {
		return err
	}
	if text := r.Ack.Text(); text != "" {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	return nil
}
