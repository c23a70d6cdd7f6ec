// Package typemap translates between engine type tokens and scalar types in
// both directions, and builds a TableSpec from an introspected table.
package typemap

import (
	"strconv"
	"strings"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/schema"
)

// RawType is one column's type as reported by an engine.
type RawType struct {
	Token   string
	Extra   string
	Default *string
}

// Mapping is the result of a forward mapping.
type Mapping struct {
	Type          schema.ScalarType
	Length        int
	AutoIncrement bool
	Diagnostics   diag.List
}

var (
	int16Tokens = set("smallint", "int2", "smallserial", "serial2", "year")
	int32Tokens = set("mediumint", "int", "integer", "int4", "serial", "serial4")
	int64Tokens = set("bigint", "int8", "bigserial", "serial8")
	floatTokens = set("float", "float4", "float8", "double", "double precision", "real",
		"decimal", "numeric", "money", "dec", "fixed")
	varcharTokens = set("varchar", "character varying", "nvarchar", "varchar2", "nvarchar2",
		"varying character", "native character", "nchar varying")
	charTokens = set("char", "character", "nchar", "bpchar")
	textTokens = set("text", "tinytext", "mediumtext", "longtext", "clob", "citext",
		"enum", "set", "name", "string")
	binaryTokens = set("blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary", "bytea")
	zoneTokens   = set("timestamptz", "timestamp with time zone")
	naiveTokens  = set("datetime", "timestamp without time zone", "smalldatetime")
	timeTokens   = set("time", "timetz", "time with time zone", "time without time zone", "interval")
)

// Forward maps a raw type token to a scalar type. It never fails: a token it
// does not recognise maps to Text with an UnsupportedRawType warning.
func Forward(d schema.Dialect, raw RawType) Mapping {
	base, args := splitToken(raw.Token)
	m := Mapping{AutoIncrement: autoIncrementMarker(raw)}

	if isArray(raw.Token) {
		m.Type = schema.Text
		m.AutoIncrement = false
		m.Diagnostics.Add(diag.UnsupportedRawType, "", "", "array type %q mapped to text", raw.Token)
		return m
	}

	switch {
	case base == "tinyint":
		if len(args) == 1 && args[0] == "1" {
			m.Type = schema.Bool
		} else {
			m.Type = schema.Int16
		}
	case base == "bit":
		if len(args) == 0 || args[0] == "1" {
			m.Type = schema.Bool
		} else {
			m.Type = schema.Int64
		}
	case base == "bool" || base == "boolean":
		m.Type = schema.Bool
	case int16Tokens[base]:
		m.Type = schema.Int16
	case int32Tokens[base]:
		m.Type = schema.Int32
	case int64Tokens[base]:
		m.Type = schema.Int64
	case floatTokens[base]:
		m.Type = schema.Float64
	case varcharTokens[base], charTokens[base]:
		m.Type = schema.Text
		m.Length = lengthArg(args)
	case textTokens[base]:
		m.Type = schema.Text
	case base == "date":
		m.Type = schema.Date
	case zoneTokens[base]:
		m.Type = schema.DateTimeWithZone
	case naiveTokens[base]:
		m.Type = schema.DateTimeNaive
	case base == "timestamp":
		// MySQL stores TIMESTAMP as UTC and converts on read.
		if d == schema.MySQL {
			m.Type = schema.DateTimeWithZone
		} else {
			m.Type = schema.DateTimeNaive
		}
	case timeTokens[base]:
		m.Type = schema.Text
		m.Diagnostics.Add(diag.UnsupportedRawType, "", "", "time-of-day type %q mapped to text", raw.Token)
	case base == "json" || base == "jsonb":
		m.Type = schema.Json
	case binaryTokens[base]:
		m.Type = schema.Binary
	case base == "uuid":
		m.Type = schema.Uuid
	default:
		t, ok := affinity(d, base)
		m.Type = t
		if !ok {
			m.Diagnostics.Add(diag.UnsupportedRawType, "", "", "unknown type %q mapped to text", raw.Token)
		}
	}

	if strings.HasSuffix(base, "serial") || strings.HasPrefix(base, "serial") {
		m.AutoIncrement = true
	}
	if !m.Type.IsInteger() {
		m.AutoIncrement = false
	}

	return m
}

// affinity applies the SQLite column affinity rules, which accept any
// declared type name.
func affinity(d schema.Dialect, base string) (schema.ScalarType, bool) {
	if d != schema.SQLite {
		return schema.Text, false
	}
	switch {
	case strings.Contains(base, "int"):
		return schema.Int64, true
	case strings.Contains(base, "char"), strings.Contains(base, "clob"), strings.Contains(base, "text"):
		return schema.Text, true
	case strings.Contains(base, "real"), strings.Contains(base, "floa"), strings.Contains(base, "doub"):
		return schema.Float64, true
	}
	return schema.Text, false
}

func autoIncrementMarker(raw RawType) bool {
	extra := strings.ToLower(raw.Extra)
	if strings.Contains(extra, "auto_increment") || strings.Contains(extra, "identity") {
		return true
	}
	if raw.Default != nil && strings.HasPrefix(strings.ToLower(strings.TrimSpace(*raw.Default)), "nextval(") {
		return true
	}
	return false
}

// splitToken lower-cases a token, drops sign and fill qualifiers, and
// separates the first parenthesised argument list from the type name.
func splitToken(token string) (string, []string) {
	token = strings.ToLower(strings.TrimSpace(token))

	var args []string
	if open := strings.IndexByte(token, '('); open >= 0 {
		if end := strings.IndexByte(token[open:], ')'); end >= 0 {
			inner := token[open+1 : open+end]
			for _, a := range strings.Split(inner, ",") {
				args = append(args, strings.TrimSpace(a))
			}
			token = token[:open] + " " + token[open+end+1:]
		}
	}

	fields := strings.Fields(token)
	kept := fields[:0]
	for _, f := range fields {
		switch f {
		case "unsigned", "signed", "zerofill":
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " "), args
}

// isArray matches Postgres array spellings: "integer[]", "text[][]",
// "integer array" and the bare "array" data type.
func isArray(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	if strings.HasSuffix(token, "]") {
		return true
	}
	fields := strings.Fields(token)
	return len(fields) > 0 && fields[len(fields)-1] == "array"
}

func lengthArg(args []string) int {
	if len(args) == 0 {
		return 0
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
