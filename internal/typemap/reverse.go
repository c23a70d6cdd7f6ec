package typemap

import (
	"fmt"
	"strconv"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/dialect"
	"github.com/tordrt/schemabridge/internal/schema"
)

// BoolNote annotates booleans stored as integers.
const BoolNote = "1 = true, 0 = false"

// Rendered is a column type token for one dialect.
type Rendered struct {
	Token string
	// InlinePK is set when Token already declares the primary key.
	InlinePK bool
	Note     string
}

// Reverse renders the DDL type token for c under p. singlePK reports whether
// c is the only primary-key column of its table.
func Reverse(p dialect.Policy, c schema.ColumnSpec, singlePK bool) (Rendered, error) {
	base, err := baseToken(p.Dialect, c.Type, c.Length)
	if err != nil {
		return Rendered{}, err
	}
	r := Rendered{Token: base}

	if c.AutoIncrement && c.Type.IsInteger() {
		switch p.AutoIncrement {
		case dialect.AutoIncModifier:
			r.Token = base + " " + p.AutoIncrementKeyword
		case dialect.AutoIncSerialType:
			r.Token = serialToken(c.Type)
		case dialect.AutoIncIntegerPrimaryKey:
			if c.PrimaryKey && singlePK {
				r.Token = "INTEGER PRIMARY KEY AUTOINCREMENT"
				r.InlinePK = true
			}
		}
	}

	if c.Type == schema.Bool && !p.NativeBool {
		r.Note = BoolNote
	}
	return r, nil
}

func serialToken(t schema.ScalarType) string {
	switch t {
	case schema.Int16:
		return "SMALLSERIAL"
	case schema.Int32:
		return "SERIAL"
	default:
		return "BIGSERIAL"
	}
}

// baseToken is the reverse table. Every scalar type has a case, and every
// case names every dialect.
func baseToken(d schema.Dialect, t schema.ScalarType, length int) (string, error) {
	pick := func(mysql, postgres, sqlite string) (string, error) {
		switch d {
		case schema.MySQL:
			return mysql, nil
		case schema.Postgres:
			return postgres, nil
		case schema.SQLite:
			return sqlite, nil
		}
		return "", fmt.Errorf("%w: no type for %s under %s", diag.ErrUnknownDialectPolicy, t, d)
	}

	switch t {
	case schema.Int16:
		return pick("SMALLINT", "SMALLINT", "INTEGER")
	case schema.Int32:
		return pick("INT", "INTEGER", "INTEGER")
	case schema.Int64:
		return pick("BIGINT", "BIGINT", "INTEGER")
	case schema.Bool:
		return pick("TINYINT(1)", "BOOLEAN", "INTEGER")
	case schema.Float64:
		return pick("DOUBLE", "DOUBLE PRECISION", "REAL")
	case schema.Text:
		if length > 0 {
			v := "VARCHAR(" + strconv.Itoa(length) + ")"
			return pick(v, v, v)
		}
		return pick("TEXT", "TEXT", "TEXT")
	case schema.Date:
		return pick("DATE", "DATE", "DATE")
	case schema.DateTimeNaive:
		return pick("DATETIME", "TIMESTAMP", "DATETIME")
	case schema.DateTimeWithZone:
		return pick("TIMESTAMP", "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ")
	case schema.Binary:
		return pick("BLOB", "BYTEA", "BLOB")
	case schema.Json:
		return pick("JSON", "JSONB", "TEXT")
	case schema.Uuid:
		return pick("CHAR(36)", "UUID", "TEXT")
	}
	return "", fmt.Errorf("%w: no type for %s under %s", diag.ErrUnknownDialectPolicy, t, d)
}
