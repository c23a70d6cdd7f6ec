package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemabridge/internal/pipeline"
)

// MarkdownFormatter writes a run report as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes a summary table followed by one section per table
func (f *MarkdownFormatter) Format(results []pipeline.Result) error {
	s := pipeline.Summarize(results)
	_, _ = fmt.Fprintln(f.writer, "# Schema Bridge Report")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintf(f.writer, "%d tables, %d failed, %d warnings\n\n", s.Tables, s.Failed, s.Warnings)

	_, _ = fmt.Fprintln(f.writer, "| Table | Status | Warnings |")
	_, _ = fmt.Fprintln(f.writer, "|---|---|---|")
	for _, r := range results {
		_, _ = fmt.Fprintf(f.writer, "| %s | %s | %d |\n", r.Table, status(r), len(r.Diagnostics.Warnings()))
	}
	_, _ = fmt.Fprintln(f.writer)

	for _, r := range results {
		f.formatResult(r)
	}
	return nil
}

func (f *MarkdownFormatter) formatResult(r pipeline.Result) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", r.Table)

	if !r.OK() {
		_, _ = fmt.Fprintf(f.writer, "**Failed:** %v\n\n", r.Err)
	} else {
		if r.Spec.HasComment {
			_, _ = fmt.Fprintf(f.writer, "%s\n\n", r.Spec.Comment)
		}

		_, _ = fmt.Fprintln(f.writer, "### Columns")
		_, _ = fmt.Fprintln(f.writer)
		for _, col := range r.Spec.Columns {
			facts := columnFacts(col)
			if len(facts) > 1 {
				_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, facts[0], strings.Join(facts[1:], ", "))
			} else {
				_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, facts[0])
			}
		}
		_, _ = fmt.Fprintln(f.writer)

		if indexes := r.Spec.Indexes(); len(indexes) > 0 {
			_, _ = fmt.Fprintln(f.writer, "### Indexes")
			_, _ = fmt.Fprintln(f.writer)
			for _, idx := range indexes {
				if idx.Unique {
					_, _ = fmt.Fprintf(f.writer, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
				} else {
					_, _ = fmt.Fprintf(f.writer, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
				}
			}
			_, _ = fmt.Fprintln(f.writer)
		}
	}

	if len(r.Diagnostics) > 0 {
		_, _ = fmt.Fprintln(f.writer, "### Diagnostics")
		_, _ = fmt.Fprintln(f.writer)
		for _, d := range r.Diagnostics {
			_, _ = fmt.Fprintf(f.writer, "- `%s`\n", d.Error())
		}
		_, _ = fmt.Fprintln(f.writer)
	}
}

func status(r pipeline.Result) string {
	if r.OK() {
		return "ok"
	}
	return "failed"
}
