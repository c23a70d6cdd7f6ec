// Package diag collects the per-table and per-field problems found while
// building, parsing, or emitting a table definition.
//
// Problems are accumulated rather than returned on first failure so a caller
// sees every issue of a run in one pass. Each Diagnostic is also an error and
// matches the sentinel of its Kind through errors.Is.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a diagnostic.
type Kind string

// Diagnostic kinds.
const (
	IntrospectionUnavailable  Kind = "IntrospectionUnavailable"
	UnsupportedRawType        Kind = "UnsupportedRawType"
	MissingTableAnnotation    Kind = "MissingTableAnnotation"
	MalformedFieldAnnotation  Kind = "MalformedFieldAnnotation"
	AmbiguousSoftDeleteColumn Kind = "AmbiguousSoftDeleteColumn"
	MissingPrimaryKey         Kind = "MissingPrimaryKey"
	UnknownDialectPolicy      Kind = "UnknownDialectPolicy"
	InvalidSchema             Kind = "InvalidSchema"
)

// Sentinel errors, one per Kind.
var (
	ErrIntrospectionUnavailable  = errors.New("schemabridge: introspection unavailable")
	ErrUnsupportedRawType        = errors.New("schemabridge: unsupported raw type")
	ErrMissingTableAnnotation    = errors.New("schemabridge: missing table annotation")
	ErrMalformedFieldAnnotation  = errors.New("schemabridge: malformed field annotation")
	ErrAmbiguousSoftDeleteColumn = errors.New("schemabridge: ambiguous soft-delete column")
	ErrMissingPrimaryKey         = errors.New("schemabridge: missing primary key")
	ErrUnknownDialectPolicy      = errors.New("schemabridge: unknown dialect policy")
	ErrInvalidSchema             = errors.New("schemabridge: invalid table definition")
)

var sentinels = map[Kind]error{
	IntrospectionUnavailable:  ErrIntrospectionUnavailable,
	UnsupportedRawType:        ErrUnsupportedRawType,
	MissingTableAnnotation:    ErrMissingTableAnnotation,
	MalformedFieldAnnotation:  ErrMalformedFieldAnnotation,
	AmbiguousSoftDeleteColumn: ErrAmbiguousSoftDeleteColumn,
	MissingPrimaryKey:         ErrMissingPrimaryKey,
	UnknownDialectPolicy:      ErrUnknownDialectPolicy,
	InvalidSchema:             ErrInvalidSchema,
}

// Sentinel returns the sentinel error for k, or nil for an unknown kind.
func (k Kind) Sentinel() error {
	return sentinels[k]
}

// DefaultSeverity is the severity a kind carries unless stated otherwise.
func (k Kind) DefaultSeverity() Severity {
	switch k {
	case UnsupportedRawType, MalformedFieldAnnotation, MissingPrimaryKey:
		return Warning
	default:
		return Error
	}
}

// Severity of a diagnostic. Errors abort the affected table; warnings do not.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single recorded problem.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Table    string
	Column   string
	Message  string
}

// Error returns the error string.
func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteString(" [")
	b.WriteString(string(d.Kind))
	b.WriteString("]")
	switch {
	case d.Table != "" && d.Column != "":
		fmt.Fprintf(&b, " %s.%s", d.Table, d.Column)
	case d.Table != "":
		fmt.Fprintf(&b, " %s", d.Table)
	case d.Column != "":
		fmt.Fprintf(&b, " %s", d.Column)
	}
	if d.Message != "" {
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	return b.String()
}

// Is reports whether target is the sentinel of the diagnostic's kind.
func (d Diagnostic) Is(target error) bool {
	s := d.Kind.Sentinel()
	return s != nil && target == s
}

// New builds a diagnostic with the kind's default severity.
func New(kind Kind, table, column, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: kind.DefaultSeverity(),
		Table:    table,
		Column:   column,
		Message:  fmt.Sprintf(format, args...),
	}
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Add appends a diagnostic built with New.
func (l *List) Add(kind Kind, table, column, format string, args ...any) {
	*l = append(*l, New(kind, table, column, format, args...))
}

// Warnf appends a diagnostic forced to warning severity.
func (l *List) Warnf(kind Kind, table, column, format string, args ...any) {
	d := New(kind, table, column, format, args...)
	d.Severity = Warning
	*l = append(*l, d)
}

// Errorf appends a diagnostic forced to error severity.
func (l *List) Errorf(kind Kind, table, column, format string, args ...any) {
	d := New(kind, table, column, format, args...)
	d.Severity = Error
	*l = append(*l, d)
}

// Append appends already built diagnostics.
func (l *List) Append(ds ...Diagnostic) {
	*l = append(*l, ds...)
}

// HasErrors reports whether any diagnostic is error-severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (l List) Errors() List {
	return l.filter(func(d Diagnostic) bool { return d.Severity == Error })
}

// Warnings returns only the warning-severity diagnostics.
func (l List) Warnings() List {
	return l.filter(func(d Diagnostic) bool { return d.Severity == Warning })
}

// Filter returns the diagnostics of the given kind.
func (l List) Filter(kind Kind) List {
	return l.filter(func(d Diagnostic) bool { return d.Kind == kind })
}

// ForTable returns a copy with every diagnostic's Table set to name when empty.
func (l List) ForTable(name string) List {
	out := make(List, len(l))
	for i, d := range l {
		if d.Table == "" {
			d.Table = name
		}
		out[i] = d
	}
	return out
}

// Err joins the error-severity diagnostics, or returns nil if there are none.
func (l List) Err() error {
	var errs []error
	for _, d := range l {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}
	return errors.Join(errs...)
}

func (l List) filter(keep func(Diagnostic) bool) List {
	var out List
	for _, d := range l {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
