//go:build integration
// +build integration

package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemabridge"
	"github.com/tordrt/schemabridge/internal/annotation"
	"github.com/tordrt/schemabridge/internal/db"
	"github.com/tordrt/schemabridge/internal/formatter"
	"github.com/tordrt/schemabridge/internal/schema"
	"github.com/tordrt/schemabridge/internal/typemap"
)

const fixtureTable = "bridge_users"

// fixtureSource avoids types a dialect cannot read back exactly, so the
// DDL rendered from an introspected table can be compared to the DDL it
// was created from.
const fixtureSource = `package models

import "time"

//schemabridge:table name=bridge_users pk=id comment="integration fixture"
type BridgeUser struct {
	ID        int64      ` + "`" + `db:"id" column:"primary_key;auto_increment"` + "`" + `
	Email     string     ` + "`" + `db:"email" column:"not_null;length:255;unique;comment:login email"` + "`" + `
	Active    bool       ` + "`" + `db:"active" column:"not_null;default:true"` + "`" + `
	Score     *float64   ` + "`" + `db:"score"` + "`" + `
	FirstName *string    ` + "`" + `db:"first_name" column:"length:64;combine_index:idx_bridge_name:1"` + "`" + `
	LastName  *string    ` + "`" + `db:"last_name" column:"length:64;combine_index:idx_bridge_name:0"` + "`" + `
	Code      string     ` + "`" + `db:"code" column:"not_null;length:16;index"` + "`" + `
	DeletedAt *time.Time ` + "`" + `db:"deleted_at"` + "`" + `
}
`

// fixtureSpec parses the fixture models.
func fixtureSpec(t *testing.T) schema.TableSpec {
	t.Helper()
	models, err := annotation.ParseSource("fixture.go", []byte(fixtureSource), annotation.Options{})
	require.NoError(t, err)
	require.Len(t, models, 1)
	require.False(t, models[0].Diagnostics.HasErrors(), "%v", models[0].Diagnostics)
	return models[0].Spec
}

// renderFixture renders the fixture DDL for d.
func renderFixture(t *testing.T, d schema.Dialect) string {
	t.Helper()
	results, err := schemabridge.SQL(context.Background(), "fixture.go", []byte(fixtureSource), d, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	return results[0].Output
}

// statements splits rendered DDL into executable statements, dropping
// standalone comment lines.
func statements(ddl string) []string {
	var kept []string
	for _, line := range strings.Split(ddl, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, s := range strings.Split(strings.Join(kept, "\n"), ";\n") {
		s = strings.TrimSuffix(strings.TrimSpace(s), ";")
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// introspect reads the fixture table back and builds its spec.
func introspect(t *testing.T, intro db.Introspector) schema.TableSpec {
	t.Helper()
	ctx := context.Background()

	tables, err := intro.ListTables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, fixtureTable)

	raw, err := intro.Table(ctx, fixtureTable)
	require.NoError(t, err)

	spec, diags := typemap.BuildTableSpec(intro.Dialect(), raw, typemap.BuildOptions{})
	require.False(t, diags.HasErrors(), "%v", diags)
	return spec
}

// verifyStructure checks the facts every dialect preserves exactly.
func verifyStructure(t *testing.T, want, got schema.TableSpec) {
	t.Helper()

	require.Len(t, got.Columns, len(want.Columns))
	for i, wc := range want.Columns {
		gc := got.Columns[i]
		assert.Equal(t, wc.Name, gc.Name)
		assert.Equal(t, wc.Nullable, gc.Nullable, wc.Name)
		assert.Equal(t, wc.PrimaryKey, gc.PrimaryKey, wc.Name)
		assert.Equal(t, wc.Unique, gc.Unique, wc.Name)
		assert.Equal(t, wc.Indexed, gc.Indexed, wc.Name)
		assert.Equal(t, wc.Length, gc.Length, wc.Name)
		assert.Equal(t, wc.SoftDelete, gc.SoftDelete, wc.Name)
	}

	wantIdx, gotIdx := want.Indexes(), got.Indexes()
	require.Len(t, gotIdx, len(wantIdx))
	for i := range wantIdx {
		assert.Equal(t, wantIdx[i].Name, gotIdx[i].Name)
		assert.Equal(t, wantIdx[i].Columns, gotIdx[i].Columns)
	}
}

// verifyDDLRoundTrip checks that the introspected table renders to the DDL
// it was created from.
func verifyDDLRoundTrip(t *testing.T, d schema.Dialect, got schema.TableSpec, original string) {
	t.Helper()
	rendered, _, err := formatter.NewDDLFormatter().Format(got, d)
	require.NoError(t, err)
	assert.Equal(t, original, rendered)
}
