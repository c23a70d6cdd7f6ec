// Package softdelete picks the logical-delete column of a table.
package softdelete

import (
	"errors"
	"fmt"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/schema"
)

// DefaultCandidates lists flag names first, then deletion-timestamp names.
var DefaultCandidates = []string{
	"is_del",
	"is_deleted",
	"is_delete",
	"deleted",
	"deleted_at",
	"delete_time",
	"deleted_time",
}

// ErrOverrideNotFound is returned when an override names no column of the
// table.
var ErrOverrideNotFound = errors.New("soft-delete override column not found")

// Options configures a detection.
type Options struct {
	// Candidates replaces DefaultCandidates when non-empty.
	Candidates []string
	// Override names the soft-delete column explicitly and wins over any
	// heuristic match.
	Override string
}

func (o Options) candidates() []string {
	if len(o.Candidates) > 0 {
		return o.Candidates
	}
	return DefaultCandidates
}

// Detect returns the soft-delete column among columns.
//
// A column already flagged SoftDelete is authoritative and the candidate list
// is not consulted. Otherwise an override is used if set, and the heuristic
// runs last. More than one heuristic match is an AmbiguousSoftDeleteColumn
// error rather than a pick.
func Detect(columns []schema.ColumnSpec, opts Options) (string, bool, error) {
	var flagged []string
	for _, c := range columns {
		if c.SoftDelete {
			flagged = append(flagged, c.Name)
		}
	}
	switch len(flagged) {
	case 0:
	case 1:
		return flagged[0], true, nil
	default:
		return "", false, diag.New(diag.AmbiguousSoftDeleteColumn, "", "", "columns %v are all flagged soft_delete", flagged)
	}

	if opts.Override != "" {
		for _, c := range columns {
			if c.Name == opts.Override {
				return c.Name, true, nil
			}
		}
		return "", false, fmt.Errorf("%w: %q", ErrOverrideNotFound, opts.Override)
	}

	candidates := make(map[string]bool, len(opts.candidates()))
	for _, name := range opts.candidates() {
		candidates[name] = true
	}

	var matches []string
	for _, c := range columns {
		if candidates[c.Name] {
			matches = append(matches, c.Name)
		}
	}

	switch len(matches) {
	case 0:
		return "", false, nil
	case 1:
		return matches[0], true, nil
	default:
		return "", false, diag.New(diag.AmbiguousSoftDeleteColumn, "", "",
			"candidate columns %v all match; set an explicit soft-delete column", matches)
	}
}

// Apply returns a copy of columns with the detected column flagged. Columns
// are returned unchanged when nothing is detected or detection fails.
func Apply(columns []schema.ColumnSpec, opts Options) ([]schema.ColumnSpec, error) {
	name, found, err := Detect(columns, opts)
	if err != nil || !found {
		return columns, err
	}

	out := make([]schema.ColumnSpec, len(columns))
	copy(out, columns)
	for i := range out {
		out[i].SoftDelete = out[i].Name == name
	}
	return out, nil
}
