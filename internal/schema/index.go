package schema

import "sort"

// IndexKind distinguishes the derived index shapes.
type IndexKind int

const (
	IndexSingle IndexKind = iota
	UniqueSingle
	IndexComposite
)

// IndexSpec is derived from column flags; it is never stored on a table.
type IndexSpec struct {
	Kind    IndexKind
	Name    string
	Columns []string
	Unique  bool
}

// DefaultIndexName is the name of a non-unique single-column index.
func DefaultIndexName(table, column string) string {
	return "idx_" + table + "_" + column
}

// DefaultUniqueName is the name of a single-column unique constraint.
func DefaultUniqueName(table, column string) string {
	return "uk_" + table + "_" + column
}

// Indexes derives the table's indexes: unique constraints first, then plain
// single-column indexes, both in column order, then composite groups in order
// of first appearance. Composite members are ordered by ascending position;
// ties keep declaration order.
func (t TableSpec) Indexes() []IndexSpec {
	var uniques, singles []IndexSpec

	type member struct {
		column   string
		position int
		unique   bool
	}
	var groupOrder []string
	groups := map[string][]member{}

	for _, c := range t.Columns {
		switch {
		case c.Unique:
			name := c.IndexName
			if name == "" {
				name = DefaultUniqueName(t.Name, c.Name)
			}
			uniques = append(uniques, IndexSpec{Kind: UniqueSingle, Name: name, Columns: []string{c.Name}, Unique: true})
		case c.Indexed:
			name := c.IndexName
			if name == "" {
				name = DefaultIndexName(t.Name, c.Name)
			}
			singles = append(singles, IndexSpec{Kind: IndexSingle, Name: name, Columns: []string{c.Name}})
		}

		for _, m := range c.Composite {
			if _, seen := groups[m.Group]; !seen {
				groupOrder = append(groupOrder, m.Group)
			}
			groups[m.Group] = append(groups[m.Group], member{column: c.Name, position: m.Position, unique: m.Unique})
		}
	}

	out := make([]IndexSpec, 0, len(uniques)+len(singles)+len(groupOrder))
	out = append(out, uniques...)
	out = append(out, singles...)

	for _, name := range groupOrder {
		members := groups[name]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].position < members[j].position
		})
		idx := IndexSpec{Kind: IndexComposite, Name: name, Unique: true}
		for _, m := range members {
			idx.Columns = append(idx.Columns, m.column)
			idx.Unique = idx.Unique && m.unique
		}
		out = append(out, idx)
	}

	return out
}
