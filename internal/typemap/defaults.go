package typemap

import (
	"strings"

	"github.com/tordrt/schemabridge/internal/schema"
)

// NormalizeDefault turns an introspected default expression into the
// dialect-neutral literal stored on a ColumnSpec. The bool result is false
// when the column has no default worth keeping.
func NormalizeDefault(d schema.Dialect, t schema.ScalarType, raw *string, autoInc bool) (string, bool) {
	if raw == nil {
		return "", false
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return "", false
	}
	if autoInc || strings.HasPrefix(strings.ToLower(s), "nextval(") {
		return "", false
	}

	if d == schema.Postgres {
		s = stripCast(s)
	}
	if strings.EqualFold(s, "null") {
		return "", false
	}

	if t == schema.Bool {
		if v, ok := boolDefault(s); ok {
			return v, true
		}
	}

	if unq, ok := unquote(s); ok {
		return unq, true
	}
	return s, true
}

// stripCast removes a trailing Postgres type cast such as 'x'::text or
// 0::smallint.
func stripCast(s string) string {
	if strings.HasPrefix(s, "'") {
		end := closingQuote(s)
		if end > 0 && strings.HasPrefix(s[end+1:], "::") {
			return s[:end+1]
		}
		return s
	}
	if strings.HasPrefix(s, "(") && strings.Contains(s, ")::") {
		s = s[1:strings.Index(s, ")::")]
		return strings.TrimSpace(s)
	}
	if i := strings.Index(s, "::"); i > 0 && !strings.Contains(s[:i], "(") {
		return s[:i]
	}
	return s
}

// closingQuote returns the index of the quote ending the literal opened at
// s[0], skipping doubled quotes.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			i++
			continue
		}
		return i
	}
	return -1
}

func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || closingQuote(s) != len(s)-1 {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}

func boolDefault(s string) (string, bool) {
	if unq, ok := unquote(s); ok {
		s = unq
	}
	switch strings.ToLower(s) {
	case "1", "b'1'", "true", "t", "y", "yes", "on":
		return "true", true
	case "0", "b'0'", "false", "f", "n", "no", "off":
		return "false", true
	}
	return "", false
}
