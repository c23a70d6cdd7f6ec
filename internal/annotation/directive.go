package annotation

import (
	"fmt"
	"go/ast"
	"strconv"
	"strings"
)

// DirectivePrefix marks the table-level comment of a model struct.
const DirectivePrefix = "//schemabridge:table"

// Directive is the table-level annotation of a model.
type Directive struct {
	Name       string
	PrimaryKey string
	SoftDelete string
	Comment    string
	HasComment bool
	// Unknown holds keys the parser did not recognise.
	Unknown []string
}

// findDirective returns the directive text from a doc comment group.
func findDirective(groups ...*ast.CommentGroup) (string, bool) {
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if c.Text == DirectivePrefix {
				return "", true
			}
			if rest, ok := strings.CutPrefix(c.Text, DirectivePrefix+" "); ok {
				return rest, true
			}
		}
	}
	return "", false
}

// ParseDirective parses the key=value list following the directive prefix.
// Values are bare words or Go string literals.
func ParseDirective(s string) (Directive, error) {
	var d Directive
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return d, nil
		}

		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return d, fmt.Errorf("expected key=value at %q", s)
		}
		key := s[:eq]
		if strings.ContainsAny(key, " \t") {
			return d, fmt.Errorf("expected key=value at %q", s)
		}
		s = s[eq+1:]

		var value string
		if s != "" && (s[0] == '"' || s[0] == '`') {
			lit, err := strconv.QuotedPrefix(s)
			if err != nil {
				return d, fmt.Errorf("bad quoted value for %s: %w", key, err)
			}
			value, _ = strconv.Unquote(lit)
			s = s[len(lit):]
		} else {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			value, s = s[:end], s[end:]
		}

		switch key {
		case "name":
			d.Name = value
		case "pk":
			d.PrimaryKey = value
		case "soft_delete":
			d.SoftDelete = value
		case "comment":
			d.Comment = value
			d.HasComment = true
		default:
			d.Unknown = append(d.Unknown, key)
		}
	}
}

// String renders the directive in the form ParseDirective reads.
func (d Directive) String() string {
	var b strings.Builder
	b.WriteString(DirectivePrefix)
	write := func(key, value string) {
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(directiveValue(value))
	}
	write("name", d.Name)
	if d.PrimaryKey != "" {
		write("pk", d.PrimaryKey)
	}
	if d.SoftDelete != "" {
		write("soft_delete", d.SoftDelete)
	}
	if d.HasComment {
		write("comment", d.Comment)
	}
	return b.String()
}

func directiveValue(v string) string {
	if v == "" || strings.ContainsAny(v, " \t\"`=\n\\") {
		return strconv.Quote(v)
	}
	return v
}
