// Package schema holds the dialect-neutral table representation shared by
// both generation directions, and the raw shape introspectors report.
package schema

import (
	"fmt"
	"strings"
)

// ScalarType is the closed set of abstract column types.
type ScalarType int

const (
	Int16 ScalarType = iota
	Int32
	Int64
	Bool
	Float64
	Text
	Date
	DateTimeNaive
	DateTimeWithZone
	Binary
	Json
	Uuid

	scalarTypeCount
)

var scalarNames = [scalarTypeCount]string{
	Int16:            "int16",
	Int32:            "int32",
	Int64:            "int64",
	Bool:             "bool",
	Float64:          "float64",
	Text:             "text",
	Date:             "date",
	DateTimeNaive:    "datetime",
	DateTimeWithZone: "datetimetz",
	Binary:           "binary",
	Json:             "json",
	Uuid:             "uuid",
}

func (t ScalarType) String() string {
	if t.Valid() {
		return scalarNames[t]
	}
	return fmt.Sprintf("ScalarType(%d)", int(t))
}

// Valid reports whether t is one of the declared scalar types.
func (t ScalarType) Valid() bool {
	return t >= 0 && t < scalarTypeCount
}

// IsInteger reports whether t is one of the integer widths.
func (t ScalarType) IsInteger() bool {
	return t == Int16 || t == Int32 || t == Int64
}

// IsNumeric reports whether literals of t are written without quotes.
func (t ScalarType) IsNumeric() bool {
	return t.IsInteger() || t == Float64
}

// AllScalarTypes returns every scalar type in declaration order.
func AllScalarTypes() []ScalarType {
	out := make([]ScalarType, 0, scalarTypeCount)
	for t := ScalarType(0); t < scalarTypeCount; t++ {
		out = append(out, t)
	}
	return out
}

// ParseScalarType is the inverse of ScalarType.String.
func ParseScalarType(s string) (ScalarType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range scalarNames {
		if name == s {
			return ScalarType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown scalar type: %q", s)
}

// CompositeMembership places a column in a named multi-column index.
type CompositeMembership struct {
	Group    string
	Position int
	Unique   bool
}

// ColumnSpec describes one column.
type ColumnSpec struct {
	Name     string
	Type     ScalarType
	Nullable bool

	HasDefault bool
	Default    string

	// Length bounds a text column; 0 means unbounded.
	Length int

	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	Indexed       bool
	SoftDelete    bool

	// IndexName overrides the default name of the single-column index or
	// unique constraint.
	IndexName string

	Composite []CompositeMembership

	HasComment bool
	Comment    string

	// RawType is the type token observed in the source database. It is
	// informational only and never used to render DDL.
	RawType string
}

// IsIndexed reports whether the column gets a single-column index or unique
// constraint on emission. A unique column is always indexed.
func (c ColumnSpec) IsIndexed() bool {
	return c.Indexed || c.Unique
}

// TableSpec is one table: an ordered column list plus table-level metadata.
// Values are built once and treated as immutable afterwards.
type TableSpec struct {
	Name       string
	Columns    []ColumnSpec
	HasComment bool
	Comment    string
}

// Column returns the column with the given name.
func (t TableSpec) Column(name string) (ColumnSpec, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// PrimaryKey returns the name of the first primary-key column.
func (t TableSpec) PrimaryKey() (string, bool) {
	for _, c := range t.Columns {
		if c.PrimaryKey {
			return c.Name, true
		}
	}
	return "", false
}

// SoftDeleteColumn returns the name of the first soft-delete column.
func (t TableSpec) SoftDeleteColumn() (string, bool) {
	for _, c := range t.Columns {
		if c.SoftDelete {
			return c.Name, true
		}
	}
	return "", false
}

// Clone returns a deep copy so callers can derive a modified table without
// touching the original.
func (t TableSpec) Clone() TableSpec {
	out := t
	out.Columns = make([]ColumnSpec, len(t.Columns))
	for i, c := range t.Columns {
		if c.Composite != nil {
			c.Composite = append([]CompositeMembership(nil), c.Composite...)
		}
		out.Columns[i] = c
	}
	return out
}
