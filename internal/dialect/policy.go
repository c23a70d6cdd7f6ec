// Package dialect holds the per-engine rendering rules consulted by both
// emitters. Each dialect has exactly one Policy value, fixed at compile time.
package dialect

import (
	"fmt"
	"strings"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/schema"
)

// AutoIncrementStyle is how a dialect spells an auto-incrementing integer.
type AutoIncrementStyle int

const (
	// AutoIncModifier appends a keyword after the integer type.
	AutoIncModifier AutoIncrementStyle = iota
	// AutoIncSerialType replaces the integer type with a sequence-backed one.
	AutoIncSerialType
	// AutoIncIntegerPrimaryKey uses the INTEGER PRIMARY KEY AUTOINCREMENT
	// form on a single-column primary key and nothing elsewhere.
	AutoIncIntegerPrimaryKey
)

// CommentStyle is where column and table comments go.
type CommentStyle int

const (
	CommentInline CommentStyle = iota
	CommentStatement
	// CommentLine degrades comments to SQL line comments. They are not
	// read back.
	CommentLine
)

// UniqueStyle is the clause used for a single-column unique constraint
// inside CREATE TABLE.
type UniqueStyle int

const (
	UniqueKey        UniqueStyle = iota // UNIQUE KEY name (col)
	UniqueConstraint                    // CONSTRAINT name UNIQUE (col)
)

func (s AutoIncrementStyle) String() string {
	switch s {
	case AutoIncModifier:
		return "modifier"
	case AutoIncSerialType:
		return "serial type"
	case AutoIncIntegerPrimaryKey:
		return "integer primary key"
	}
	return fmt.Sprintf("AutoIncrementStyle(%d)", int(s))
}

func (s CommentStyle) String() string {
	switch s {
	case CommentInline:
		return "inline"
	case CommentStatement:
		return "statement"
	case CommentLine:
		return "line comment"
	}
	return fmt.Sprintf("CommentStyle(%d)", int(s))
}

func (s UniqueStyle) String() string {
	switch s {
	case UniqueKey:
		return "unique key"
	case UniqueConstraint:
		return "constraint"
	}
	return fmt.Sprintf("UniqueStyle(%d)", int(s))
}

// Policy is the rule set of one dialect.
type Policy struct {
	Dialect    schema.Dialect
	QuoteOpen  string
	QuoteClose string

	AutoIncrement AutoIncrementStyle
	// AutoIncrementKeyword is the modifier for AutoIncModifier dialects.
	AutoIncrementKeyword string

	BoolTrue   string
	BoolFalse  string
	NativeBool bool

	Comments CommentStyle
	Unique   UniqueStyle
}

var policies = [...]Policy{
	schema.MySQL: {
		Dialect:              schema.MySQL,
		QuoteOpen:            "`",
		QuoteClose:           "`",
		AutoIncrement:        AutoIncModifier,
		AutoIncrementKeyword: "AUTO_INCREMENT",
		BoolTrue:             "1",
		BoolFalse:            "0",
		NativeBool:           false,
		Comments:             CommentInline,
		Unique:               UniqueKey,
	},
	schema.Postgres: {
		Dialect:       schema.Postgres,
		QuoteOpen:     `"`,
		QuoteClose:    `"`,
		AutoIncrement: AutoIncSerialType,
		BoolTrue:      "TRUE",
		BoolFalse:     "FALSE",
		NativeBool:    true,
		Comments:      CommentStatement,
		Unique:        UniqueConstraint,
	},
	schema.SQLite: {
		Dialect:       schema.SQLite,
		QuoteOpen:     `"`,
		QuoteClose:    `"`,
		AutoIncrement: AutoIncIntegerPrimaryKey,
		BoolTrue:      "1",
		BoolFalse:     "0",
		NativeBool:    false,
		Comments:      CommentLine,
		Unique:        UniqueConstraint,
	},
}

// For returns the policy of d.
func For(d schema.Dialect) (Policy, error) {
	if d < 0 || int(d) >= len(policies) {
		return Policy{}, fmt.Errorf("%w: %s", diag.ErrUnknownDialectPolicy, d)
	}
	return policies[d], nil
}

// MustFor is like For but panics on an unknown dialect.
func MustFor(d schema.Dialect) Policy {
	p, err := For(d)
	if err != nil {
		panic(err)
	}
	return p
}

// All returns the policy of every dialect in declaration order.
func All() []Policy {
	out := make([]Policy, len(policies))
	copy(out, policies[:])
	return out
}

// Quote wraps an identifier in the dialect's quote characters, doubling any
// embedded closing quote.
func (p Policy) Quote(ident string) string {
	return p.QuoteOpen + strings.ReplaceAll(ident, p.QuoteClose, p.QuoteClose+p.QuoteClose) + p.QuoteClose
}

// QuoteList quotes and comma-joins identifiers.
func (p Policy) QuoteList(idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = p.Quote(id)
	}
	return strings.Join(quoted, ", ")
}

// BoolLiteral spells a boolean value.
func (p Policy) BoolLiteral(v bool) string {
	if v {
		return p.BoolTrue
	}
	return p.BoolFalse
}

// SupportsComments reports whether comments survive as catalog metadata.
func (p Policy) SupportsComments() bool {
	return p.Comments != CommentLine
}

// StringLiteral renders s as a single-quoted SQL string.
func StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
