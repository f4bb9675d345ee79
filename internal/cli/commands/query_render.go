package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/polydb/internal/config"
	"github.com/leapstack-labs/polydb/pkg/core"
	"gopkg.in/yaml.v3"
)

// Renderer writes command results in the configured output format.
// Tabular formats (table, csv, md) print columns and rows; json and yaml
// encode the full result value.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	format string
}

// NewRenderer creates a renderer. Unknown formats fall back to table.
func NewRenderer(out, errOut io.Writer, format string) *Renderer {
	if !config.ValidFormat(format) {
		format = config.FormatTable
	}
	return &Renderer{out: out, errOut: errOut, format: format}
}

// Format returns the effective output format.
func (r *Renderer) Format() string { return r.format }

// Writer returns the output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Rows renders v. For tabular formats cols and rows are printed instead.
func (r *Renderer) Rows(v any, cols []string, rows []map[string]any) error {
	switch r.format {
	case config.FormatJSON:
		return renderJSON(r.out, v)
	case config.FormatYAML:
		return renderYAML(r.out, v)
	case config.FormatCSV:
		return renderCSV(r.out, cols, rows)
	case config.FormatMarkdown:
		return renderMarkdown(r.out, cols, rows)
	default:
		return renderTable(r.out, cols, rows)
	}
}

// Notef prints a human-oriented footer. Machine formats skip it so their
// output stays parseable.
func (r *Renderer) Notef(format string, args ...any) {
	if r.format == config.FormatTable || r.format == config.FormatMarkdown {
		_, _ = fmt.Fprintf(r.out, format+"\n", args...)
	}
}

// Errorf prints to the error stream.
func (r *Renderer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOut, format+"\n", args...)
}

// Result renders one statement result. Reads print their rows; writes print
// the affected row count.
func (r *Renderer) Result(res *core.QueryResult) error {
	if len(res.Columns) > 0 {
		if err := r.Rows(res.Rows, res.Columns, res.Rows); err != nil {
			return err
		}
		r.Notef("(%d rows)", len(res.Rows))
		return nil
	}
	return r.Rows(res, []string{"rows_affected", "last_insert_id"}, []map[string]any{
		{"rows_affected": res.RowCount, "last_insert_id": res.LastInsertID},
	})
}

func renderTable(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, result := range results {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	return nil
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func renderCSV(w io.Writer, cols []string, results []map[string]any) error {
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = escapeCSV(col)
	}
	_, _ = fmt.Fprintln(w, strings.Join(header, ","))

	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(formatValue(result[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = strings.ReplaceAll(formatValue(result[col]), "|", `\|`)
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case *string:
		if val == nil {
			return "NULL"
		}
		return *val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
