package schema

import (
	"github.com/tordrt/schemabridge/internal/diag"
)

// Validate checks the table invariants and returns every violation found.
// A table with no primary key is valid but reported as a warning.
func Validate(t TableSpec) diag.List {
	var out diag.List

	if t.Name == "" {
		out.Add(diag.InvalidSchema, "", "", "table name is empty")
	}

	seen := make(map[string]bool, len(t.Columns))
	var pks, softDeletes []string
	for _, c := range t.Columns {
		if c.Name == "" {
			out.Add(diag.InvalidSchema, t.Name, "", "column name is empty")
			continue
		}
		if seen[c.Name] {
			out.Add(diag.InvalidSchema, t.Name, c.Name, "duplicate column")
		}
		seen[c.Name] = true

		if !c.Type.Valid() {
			out.Add(diag.InvalidSchema, t.Name, c.Name, "invalid scalar type %d", int(c.Type))
		}
		if c.Length < 0 {
			out.Add(diag.InvalidSchema, t.Name, c.Name, "negative length %d", c.Length)
		}
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
		if c.SoftDelete {
			softDeletes = append(softDeletes, c.Name)
		}
		for _, m := range c.Composite {
			if m.Group == "" {
				out.Add(diag.InvalidSchema, t.Name, c.Name, "composite index group name is empty")
			}
		}
	}

	switch {
	case len(pks) == 0:
		out.Add(diag.MissingPrimaryKey, t.Name, "", "no primary key column; PRIMARY KEY clause will be omitted")
	case len(pks) > 1:
		out.Add(diag.InvalidSchema, t.Name, "", "multiple primary key columns: %v", pks)
	}

	if len(softDeletes) > 1 {
		out.Add(diag.AmbiguousSoftDeleteColumn, t.Name, "", "multiple soft-delete columns: %v", softDeletes)
	}

	return out
}
