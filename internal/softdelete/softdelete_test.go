package softdelete

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/schema"
)

func cols(names ...string) []schema.ColumnSpec {
	out := make([]schema.ColumnSpec, len(names))
	for i, n := range names {
		out[i] = schema.ColumnSpec{Name: n}
	}
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		columns   []schema.ColumnSpec
		opts      Options
		want      string
		wantFound bool
	}{
		{
			name:    "no candidates",
			columns: cols("id", "name"),
		},
		{
			name:      "single flag candidate",
			columns:   cols("id", "is_deleted"),
			want:      "is_deleted",
			wantFound: true,
		},
		{
			name:      "single timestamp candidate",
			columns:   cols("id", "deleted_at"),
			want:      "deleted_at",
			wantFound: true,
		},
		{
			name:      "override beats heuristic",
			columns:   cols("id", "is_del", "deleted_at"),
			opts:      Options{Override: "deleted_at"},
			want:      "deleted_at",
			wantFound: true,
		},
		{
			name:      "override may name any column",
			columns:   cols("id", "archived"),
			opts:      Options{Override: "archived"},
			want:      "archived",
			wantFound: true,
		},
		{
			name:      "custom candidates",
			columns:   cols("id", "is_del", "removed"),
			opts:      Options{Candidates: []string{"removed"}},
			want:      "removed",
			wantFound: true,
		},
		{
			name: "explicit flag is authoritative",
			columns: []schema.ColumnSpec{
				{Name: "id"},
				{Name: "is_del"},
				{Name: "gone", SoftDelete: true},
			},
			opts:      Options{Override: "is_del"},
			want:      "gone",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := Detect(tt.columns, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectAmbiguous(t *testing.T) {
	_, found, err := Detect(cols("id", "is_del", "name", "deleted_at"), Options{})
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, errors.Is(err, diag.ErrAmbiguousSoftDeleteColumn))

	var d diag.Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, diag.Error, d.Severity)
}

func TestDetectTwoFlagged(t *testing.T) {
	columns := []schema.ColumnSpec{{Name: "a", SoftDelete: true}, {Name: "b", SoftDelete: true}}
	_, _, err := Detect(columns, Options{})
	assert.True(t, errors.Is(err, diag.ErrAmbiguousSoftDeleteColumn))
}

func TestDetectOverrideMissing(t *testing.T) {
	_, _, err := Detect(cols("id"), Options{Override: "nope"})
	assert.True(t, errors.Is(err, ErrOverrideNotFound))
}

func TestApply(t *testing.T) {
	in := cols("id", "deleted_at")
	out, err := Apply(in, Options{})
	require.NoError(t, err)
	assert.True(t, out[1].SoftDelete)
	assert.False(t, in[1].SoftDelete, "input must not change")
}
