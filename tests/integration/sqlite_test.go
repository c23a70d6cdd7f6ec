//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemabridge/internal/db"
	"github.com/tordrt/schemabridge/internal/schema"
)

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bridge.db")

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer conn.Close()

	for _, stmt := range statements(renderFixture(t, schema.SQLite)) {
		_, err := conn.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	intro, err := db.Open(ctx, "sqlite:"+path)
	require.NoError(t, err)
	defer intro.Close(ctx)

	got := introspect(t, intro)
	want := fixtureSpec(t)
	verifyStructure(t, want, got)

	// SQLite keeps no comments and stores every integer as INTEGER.
	assert.False(t, got.HasComment)
	id, _ := got.Column("id")
	assert.True(t, id.AutoIncrement)
	email, _ := got.Column("email")
	assert.False(t, email.HasComment)
}

func TestSQLiteMissingTable(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "empty.db")
	_, err := db.Open(ctx, "sqlite:"+path)
	assert.ErrorIs(t, err, os.ErrNotExist, "introspection never creates the file")

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, conn.PingContext(ctx))
	require.NoError(t, conn.Close())

	intro, err := db.Open(ctx, "sqlite:"+path)
	require.NoError(t, err)
	defer intro.Close(ctx)

	tables, err := intro.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	_, err = intro.Table(ctx, "nope")
	assert.ErrorIs(t, err, db.ErrTableNotFound)
}
