package formatter

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemabridge/internal/annotation"
	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/dialect"
	"github.com/tordrt/schemabridge/internal/schema"
	"github.com/tordrt/schemabridge/internal/typemap"
)

// DDLFormatter renders a table as CREATE TABLE, CREATE INDEX and comment
// statements for one dialect.
type DDLFormatter struct{}

// NewDDLFormatter creates a new DDL formatter.
func NewDDLFormatter() *DDLFormatter {
	return &DDLFormatter{}
}

// Format renders spec under d. Warnings are returned alongside the text; an
// error means no text could be produced.
func (f *DDLFormatter) Format(spec schema.TableSpec, d schema.Dialect) (string, diag.List, error) {
	p, err := dialect.For(d)
	if err != nil {
		return "", nil, err
	}

	var diags diag.List
	var pkCols []string
	for _, c := range spec.Columns {
		if c.PrimaryKey {
			pkCols = append(pkCols, c.Name)
		}
	}
	if len(pkCols) == 0 {
		diags.Add(diag.MissingPrimaryKey, spec.Name, "", "no primary key column; PRIMARY KEY clause omitted")
	}
	singlePK := len(pkCols) == 1

	type line struct {
		text    string
		comment string
	}
	var body []line
	inlinePK := false

	for _, c := range spec.Columns {
		r, err := typemap.Reverse(p, c, singlePK)
		if err != nil {
			return "", diags, fmt.Errorf("failed to render column %s.%s: %w", spec.Name, c.Name, err)
		}
		inlinePK = inlinePK || r.InlinePK

		var b strings.Builder
		b.WriteString(p.Quote(c.Name))
		b.WriteString(" ")
		b.WriteString(r.Token)
		if !c.Nullable && !c.PrimaryKey {
			b.WriteString(" NOT NULL")
		}
		if c.HasDefault && !c.AutoIncrement {
			b.WriteString(" DEFAULT ")
			b.WriteString(defaultLiteral(p, c))
		}
		if c.HasComment && p.Comments == dialect.CommentInline {
			b.WriteString(" COMMENT ")
			b.WriteString(dialect.StringLiteral(c.Comment))
		}

		var notes []string
		if c.HasComment && p.Comments == dialect.CommentLine {
			notes = append(notes, c.Comment)
		}
		if r.Note != "" {
			notes = append(notes, r.Note)
		}
		body = append(body, line{text: b.String(), comment: lineComment(strings.Join(notes, "; "))})
	}

	if len(pkCols) > 0 && !inlinePK {
		body = append(body, line{text: "PRIMARY KEY (" + p.QuoteList(pkCols) + ")"})
	}

	indexes := spec.Indexes()
	for _, idx := range indexes {
		if idx.Kind != schema.UniqueSingle {
			continue
		}
		switch p.Unique {
		case dialect.UniqueKey:
			body = append(body, line{text: "UNIQUE KEY " + p.Quote(idx.Name) + " (" + p.QuoteList(idx.Columns) + ")"})
		default:
			body = append(body, line{text: "CONSTRAINT " + p.Quote(idx.Name) + " UNIQUE (" + p.QuoteList(idx.Columns) + ")"})
		}
	}

	var create strings.Builder
	create.WriteString("CREATE TABLE ")
	create.WriteString(p.Quote(spec.Name))
	create.WriteString(" (\n")
	for i, l := range body {
		create.WriteString("  ")
		create.WriteString(l.text)
		if i < len(body)-1 {
			create.WriteString(",")
		}
		if l.comment != "" {
			create.WriteString(" -- ")
			create.WriteString(l.comment)
		}
		create.WriteString("\n")
	}
	create.WriteString(")")
	if spec.HasComment && p.Comments == dialect.CommentInline {
		create.WriteString(" COMMENT ")
		create.WriteString(dialect.StringLiteral(spec.Comment))
	}
	create.WriteString(";")

	sections := []string{create.String()}

	var indexStmts []string
	for _, idx := range indexes {
		if idx.Kind == schema.UniqueSingle {
			continue
		}
		kw := "CREATE INDEX "
		if idx.Unique {
			kw = "CREATE UNIQUE INDEX "
		}
		indexStmts = append(indexStmts,
			kw+p.Quote(idx.Name)+" ON "+p.Quote(spec.Name)+" ("+p.QuoteList(idx.Columns)+");")
	}
	if len(indexStmts) > 0 {
		sections = append(sections, strings.Join(indexStmts, "\n"))
	}

	switch p.Comments {
	case dialect.CommentStatement:
		var stmts []string
		for _, c := range spec.Columns {
			if c.HasComment {
				stmts = append(stmts, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;",
					p.Quote(spec.Name), p.Quote(c.Name), dialect.StringLiteral(c.Comment)))
			}
		}
		if spec.HasComment {
			stmts = append(stmts, fmt.Sprintf("COMMENT ON TABLE %s IS %s;",
				p.Quote(spec.Name), dialect.StringLiteral(spec.Comment)))
		}
		if len(stmts) > 0 {
			sections = append(sections, strings.Join(stmts, "\n"))
		}
	case dialect.CommentLine:
		if spec.HasComment {
			sections = append(sections, "-- table comment: "+lineComment(spec.Comment))
		}
	}

	return strings.Join(sections, "\n\n") + "\n", diags, nil
}

// defaultLiteral renders a column default: booleans in the dialect's
// spelling, numbers and SQL expressions verbatim, anything else quoted.
func defaultLiteral(p dialect.Policy, c schema.ColumnSpec) string {
	v := c.Default
	switch {
	case c.Type == schema.Bool:
		switch strings.ToLower(v) {
		case "true", "1":
			return p.BoolLiteral(true)
		case "false", "0":
			return p.BoolLiteral(false)
		}
		return v
	case c.Type.IsNumeric() && v != "":
		return v
	case annotation.IsFunctionDefault(v):
		return v
	}
	return dialect.StringLiteral(v)
}

func lineComment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
