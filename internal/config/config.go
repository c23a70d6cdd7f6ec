// Package config loads schemabridge settings from flags, SCHEMABRIDGE_*
// environment variables and an optional schemabridge.yaml file, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tordrt/schemabridge/internal/schema"
	"github.com/tordrt/schemabridge/internal/softdelete"
)

const (
	EnvPrefix  = "SCHEMABRIDGE"
	ConfigName = "schemabridge"
)

// Config is the decoded configuration.
type Config struct {
	DatabaseURL string           `mapstructure:"database_url"`
	Output      string           `mapstructure:"output"`
	Package     string           `mapstructure:"package"`
	Serde       bool             `mapstructure:"serde"`
	CRUD        bool             `mapstructure:"crud"`
	Workers     int              `mapstructure:"workers"`
	Dialect     string           `mapstructure:"dialect"`
	Report      string           `mapstructure:"report"`
	SoftDelete  SoftDeleteConfig `mapstructure:"soft_delete"`
}

// SoftDeleteConfig tunes soft-delete detection.
type SoftDeleteConfig struct {
	Candidates []string `mapstructure:"candidates"`
	Override   string   `mapstructure:"override"`
	// Tables holds per-table overrides and wins over Override.
	Tables map[string]string `mapstructure:"tables"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"database-url": "database_url",
	"output":       "output",
	"package":      "package",
	"serde":        "serde",
	"crud":         "crud",
	"workers":      "workers",
	"dialect":      "dialect",
	"report":       "report",
	"soft-delete":  "soft_delete.override",
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_url", "")
	v.SetDefault("output", "")
	v.SetDefault("package", "models")
	v.SetDefault("serde", false)
	v.SetDefault("crud", false)
	v.SetDefault("workers", 0)
	v.SetDefault("dialect", "")
	v.SetDefault("report", "")
	v.SetDefault("soft_delete.candidates", softdelete.DefaultCandidates)
	v.SetDefault("soft_delete.override", "")
	v.SetDefault("soft_delete.tables", map[string]string{})
	return v
}

// BindFlags binds every known flag present in fs, so a flag the user set
// takes precedence over env and file values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file and decodes the result. With an empty path it
// looks for schemabridge.yaml in the working directory and tolerates its
// absence; an explicit path must exist.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &missing) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Package != "" && !token.IsIdentifier(c.Package) {
		errs = append(errs, fmt.Errorf("package %q is not a valid Go identifier", c.Package))
	}
	if c.Dialect != "" {
		if _, err := schema.ParseDialect(c.Dialect); err != nil {
			errs = append(errs, err)
		}
	}
	switch c.Report {
	case "", "text", "markdown", "md", "yaml", "yml":
	default:
		errs = append(errs, fmt.Errorf("invalid report format: %s (must be 'text', 'markdown', or 'yaml')", c.Report))
	}
	for i, cand := range c.SoftDelete.Candidates {
		if strings.TrimSpace(cand) == "" {
			errs = append(errs, fmt.Errorf("soft_delete.candidates[%d] is empty", i))
		}
	}
	return errors.Join(errs...)
}

// SoftDeleteFor returns the detection options for one table.
func (c Config) SoftDeleteFor(table string) softdelete.Options {
	opts := softdelete.Options{
		Candidates: c.SoftDelete.Candidates,
		Override:   c.SoftDelete.Override,
	}
	// viper lower-cases map keys.
	if col, ok := c.SoftDelete.Tables[strings.ToLower(table)]; ok && col != "" {
		opts.Override = col
	}
	return opts
}
