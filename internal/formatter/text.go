package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/pipeline"
	"github.com/tordrt/schemabridge/internal/schema"
)

// TextFormatter writes a run report as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes one block per table followed by a summary line
func (f *TextFormatter) Format(results []pipeline.Result) error {
	for i, r := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		f.formatResult(r)
	}

	s := pipeline.Summarize(results)
	_, _ = fmt.Fprintf(f.writer, "\n%d tables, %d failed, %d warnings\n", s.Tables, s.Failed, s.Warnings)
	return nil
}

func (f *TextFormatter) formatResult(r pipeline.Result) {
	if !r.OK() {
		_, _ = fmt.Fprintf(f.writer, "TABLE %s FAILED: %v\n", r.Table, r.Err)
		f.formatDiagnostics(r.Diagnostics.Warnings())
		return
	}

	pkStr := ""
	if pk, ok := r.Spec.PrimaryKey(); ok {
		pkStr = fmt.Sprintf(" (PK: %s)", pk)
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s\n", r.Table, pkStr)

	for _, col := range r.Spec.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", formatColumn(col))
	}

	if indexes := r.Spec.Indexes(); len(indexes) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  INDEXES:")
		for _, idx := range indexes {
			unique := ""
			if idx.Unique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(f.writer, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}

	f.formatDiagnostics(r.Diagnostics)
}

func (f *TextFormatter) formatDiagnostics(diags diag.List) {
	if len(diags) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "  DIAGNOSTICS:")
	for _, d := range diags {
		_, _ = fmt.Fprintf(f.writer, "    %s\n", d.Error())
	}
}

func formatColumn(col schema.ColumnSpec) string {
	return col.Name + ": " + strings.Join(columnFacts(col), " ")
}

// columnFacts lists the type and constraints of a column, shared by the
// text and markdown reports.
func columnFacts(col schema.ColumnSpec) []string {
	typeStr := col.Type.String()
	if col.Length > 0 {
		typeStr = fmt.Sprintf("%s(%d)", typeStr, col.Length)
	}
	parts := []string{typeStr}

	if col.PrimaryKey {
		parts = append(parts, "PK")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if col.HasDefault {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", col.Default))
	}
	if col.SoftDelete {
		parts = append(parts, "SOFT DELETE")
	}
	return parts
}
