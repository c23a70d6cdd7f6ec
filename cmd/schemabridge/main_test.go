package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelSource = `package models

//schemabridge:table name=users pk=id comment="user accounts"
type User struct {
	ID        int64   ` + "`" + `db:"id" column:"primary_key;auto_increment"` + "`" + `
	Email     string  ` + "`" + `db:"email" column:"not_null;length:255;unique"` + "`" + `
	DeletedAt *string ` + "`" + `db:"deleted_at" column:"length:32"` + "`" + `
}

//schemabridge:table pk=id
type Orphan struct {
	ID int64 ` + "`" + `db:"id"` + "`" + `
}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "models.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "blank", in: "  ", want: nil},
		{name: "single", in: "users", want: []string{"users"}},
		{name: "trimmed", in: " users , orders ,", want: []string{"users", "orders"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.in))
		})
	}
}

func TestDialectsCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execute(t, "dialects")
	require.NoError(t, err)
	for _, want := range []string{"mysql", "postgres", "sqlite", "`name`", "serial type", "line comment (not read back)"} {
		assert.Contains(t, out, want)
	}
}

func TestSQLCommand(t *testing.T) {
	input := writeSource(t, modelSource)

	out, stderr, err := execute(t, "sql", "--input", input, "--dialect", "mysql")
	require.ErrorIs(t, err, errTablesFailed)

	assert.Contains(t, out, "CREATE TABLE `users` (")
	assert.Contains(t, out, ") COMMENT 'user accounts';")
	assert.Contains(t, stderr, "OK     users")
	assert.Contains(t, stderr, "FAILED Orphan")
}

func TestSQLCommandOutputFile(t *testing.T) {
	input := writeSource(t, strings.SplitN(modelSource, "//schemabridge:table pk=id\n", 2)[0])
	output := filepath.Join(t.TempDir(), "schema.sql")

	_, stderr, err := execute(t, "sql", "--input", input, "--dialect", "sqlite", "--output", output, "--report", "yaml")
	require.NoError(t, err)
	assert.Contains(t, stderr, "tables: 1")

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	assert.Contains(t, string(content), "-- table comment: user accounts")
}

func TestSQLCommandFlagErrors(t *testing.T) {
	input := writeSource(t, modelSource)

	_, _, err := execute(t, "sql", "--input", input)
	assert.ErrorContains(t, err, "--dialect must be specified")

	_, _, err = execute(t, "sql", "--input", input, "--dialect", "oracle")
	assert.ErrorContains(t, err, "invalid dialect")

	_, _, err = execute(t, "sql", "--dialect", "mysql")
	assert.ErrorContains(t, err, "input")
}

func TestSQLCommandDialectFromEnv(t *testing.T) {
	input := writeSource(t, modelSource)
	t.Setenv("SCHEMABRIDGE_DIALECT", "postgres")

	out, _, _ := execute(t, "sql", "--input", input)
	assert.Contains(t, out, `CREATE TABLE "users" (`)
	assert.Contains(t, out, `COMMENT ON TABLE "users" IS 'user accounts';`)
}

func TestSQLCommandConfigFile(t *testing.T) {
	input := writeSource(t, modelSource)
	cfgPath := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dialect: sqlite\nworkers: 2\n"), 0o600))

	out, _, _ := execute(t, "sql", "--config", cfgPath, "--input", input)
	assert.Contains(t, out, `CREATE TABLE "users" (`)

	_, _, err := execute(t, "sql", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--input", input)
	assert.ErrorContains(t, err, "failed to read config")
}

func TestGenerateFlagErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no database url",
			args:    []string{"generate", "--all"},
			wantErr: "--database-url",
		},
		{
			name:    "no table selection",
			args:    []string{"generate", "--database-url", "sqlite:app.db"},
			wantErr: "one of --tables or --all",
		},
		{
			name:    "both selections",
			args:    []string{"generate", "--database-url", "sqlite:app.db", "--all", "--tables", "users"},
			wantErr: "only one of --tables or --all",
		},
		{
			name:    "bad package",
			args:    []string{"generate", "--database-url", "sqlite:app.db", "--all", "--package", "my-models"},
			wantErr: "invalid configuration",
		},
		{
			name:    "unsupported scheme",
			args:    []string{"generate", "--database-url", "oracle://db", "--all"},
			wantErr: "unsupported database URL scheme",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
