package annotation

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnTag is the decoded `column:"..."` struct tag of one field.
type ColumnTag struct {
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Null          bool
	Unique        bool
	Index         bool
	SoftDelete    bool

	HasDefault bool
	Default    string
	Length     int
	IndexName  string

	Composite []CompositeRef

	HasComment bool
	Comment    string
}

// CompositeRef is one combine_index or combine_unique entry.
type CompositeRef struct {
	Group       string
	Position    int
	HasPosition bool
	Unique      bool
}

// ParseColumnTag decodes a column tag value. Problems are returned as
// messages; the tag keeps every entry that did decode.
func ParseColumnTag(tag string) (ColumnTag, []string) {
	var (
		ct       ColumnTag
		problems []string
	)

	for _, item := range splitTag(tag) {
		key, value, hasValue := strings.Cut(item, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		switch key {
		case "primary_key", "pk":
			ct.PrimaryKey = true
		case "auto_increment", "autoincrement":
			ct.AutoIncrement = true
		case "not_null":
			ct.NotNull = true
		case "null":
			ct.Null = true
		case "soft_delete":
			ct.SoftDelete = true
		case "unique":
			ct.Unique = true
			if hasValue {
				ct.IndexName = strings.TrimSpace(value)
			}
		case "index":
			ct.Index = true
			if hasValue {
				ct.IndexName = strings.TrimSpace(value)
			}
		case "default":
			if !hasValue {
				problems = append(problems, "default needs a value")
				continue
			}
			ct.HasDefault = true
			ct.Default = value
		case "length", "size":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n <= 0 {
				problems = append(problems, fmt.Sprintf("invalid length %q", value))
				continue
			}
			ct.Length = n
		case "comment":
			ct.HasComment = true
			ct.Comment = value
		case "combine_index", "combine_unique":
			ref, err := parseCompositeRef(value)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", key, err))
				continue
			}
			ref.Unique = key == "combine_unique"
			ct.Composite = append(ct.Composite, ref)
		default:
			problems = append(problems, fmt.Sprintf("unknown key %q", key))
		}
	}

	return ct, problems
}

func parseCompositeRef(value string) (CompositeRef, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return CompositeRef{}, fmt.Errorf("missing group name")
	}
	group, pos, hasPos := strings.Cut(value, ":")
	ref := CompositeRef{Group: strings.TrimSpace(group)}
	if ref.Group == "" {
		return CompositeRef{}, fmt.Errorf("missing group name")
	}
	if hasPos {
		n, err := strconv.Atoi(strings.TrimSpace(pos))
		if err != nil || n < 0 {
			return CompositeRef{}, fmt.Errorf("invalid position %q", pos)
		}
		ref.Position = n
		ref.HasPosition = true
	}
	return ref, nil
}

// splitTag splits on unescaped semicolons. A backslash escapes the next
// character.
func splitTag(tag string) []string {
	var (
		items []string
		cur   strings.Builder
	)
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case c == '\\' && i+1 < len(tag):
			i++
			cur.WriteByte(tag[i])
		case c == ';':
			items = append(items, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		items = append(items, cur.String())
	}
	return items
}

// EscapeTagValue escapes a free-text value for use inside a column tag.
func EscapeTagValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ";", `\;`)
}

// String renders the tag in the form ParseColumnTag reads. Entries appear
// in a fixed order.
func (ct ColumnTag) String() string {
	var items []string
	add := func(s string) { items = append(items, s) }

	if ct.PrimaryKey {
		add("primary_key")
	}
	if ct.AutoIncrement {
		add("auto_increment")
	}
	if ct.NotNull {
		add("not_null")
	}
	if ct.Null {
		add("null")
	}
	if ct.HasDefault {
		add("default:" + EscapeTagValue(ct.Default))
	}
	if ct.Length > 0 {
		add("length:" + strconv.Itoa(ct.Length))
	}
	switch {
	case ct.Unique && ct.IndexName != "":
		add("unique:" + ct.IndexName)
	case ct.Unique:
		add("unique")
	case ct.Index && ct.IndexName != "":
		add("index:" + ct.IndexName)
	case ct.Index:
		add("index")
	}
	if ct.SoftDelete {
		add("soft_delete")
	}
	for _, ref := range ct.Composite {
		key := "combine_index"
		if ref.Unique {
			key = "combine_unique"
		}
		v := key + ":" + ref.Group
		if ref.HasPosition {
			v += ":" + strconv.Itoa(ref.Position)
		}
		add(v)
	}
	if ct.HasComment {
		add("comment:" + EscapeTagValue(ct.Comment))
	}
	return strings.Join(items, ";")
}
