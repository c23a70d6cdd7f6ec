package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemabridge/internal/softdelete"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemabridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "models", cfg.Package)
	assert.Empty(t, cfg.Report)
	assert.Equal(t, softdelete.DefaultCandidates, cfg.SoftDelete.Candidates)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
database_url: sqlite:app.db
package: store
crud: true
workers: 4
soft_delete:
  candidates: [removed_at]
  override: gone
  tables:
    Orders: cancelled_at
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite:app.db", cfg.DatabaseURL)
	assert.Equal(t, "store", cfg.Package)
	assert.True(t, cfg.CRUD)
	assert.Equal(t, 4, cfg.Workers)

	assert.Equal(t, softdelete.Options{Candidates: []string{"removed_at"}, Override: "cancelled_at"}, cfg.SoftDeleteFor("orders"))
	assert.Equal(t, softdelete.Options{Candidates: []string{"removed_at"}, Override: "gone"}, cfg.SoftDeleteFor("users"))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestPrecedence(t *testing.T) {
	path := writeConfig(t, "package: fromfile\nworkers: 2\ndialect: mysql\n")
	t.Setenv("SCHEMABRIDGE_PACKAGE", "fromenv")
	t.Setenv("SCHEMABRIDGE_SOFT_DELETE_OVERRIDE", "removed")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("package", "", "")
	fs.Int("workers", 0, "")
	fs.String("dialect", "", "")
	require.NoError(t, fs.Parse([]string{"--dialect", "sqlite"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	cfg, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Dialect, "a set flag wins")
	assert.Equal(t, "fromenv", cfg.Package, "env beats file")
	assert.Equal(t, 2, cfg.Workers, "file beats an unset flag")
	assert.Equal(t, "removed", cfg.SoftDelete.Override)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{name: "valid", cfg: Config{Package: "models", Report: "yaml", Dialect: "pg"}},
		{name: "negative workers", cfg: Config{Workers: -1}, wantErr: []string{"workers must not be negative"}},
		{name: "bad package", cfg: Config{Package: "my-models"}, wantErr: []string{"not a valid Go identifier"}},
		{name: "bad dialect", cfg: Config{Dialect: "oracle"}, wantErr: []string{"invalid dialect"}},
		{name: "bad report", cfg: Config{Report: "html"}, wantErr: []string{"invalid report format"}},
		{
			name:    "all problems at once",
			cfg:     Config{Workers: -2, Report: "pdf", SoftDelete: SoftDeleteConfig{Candidates: []string{" "}}},
			wantErr: []string{"workers", "report", "soft_delete.candidates[0]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}
