package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tordrt/schemabridge/internal/config"
	"github.com/tordrt/schemabridge/internal/dialect"
	"github.com/tordrt/schemabridge/internal/formatter"
	"github.com/tordrt/schemabridge/internal/pipeline"
)

// errTablesFailed makes the process exit non-zero after a run in which at
// least one table produced no output.
var errTablesFailed = errors.New("one or more tables failed")

type app struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger

	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: config.New(), stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "schemabridge",
		Short: "Convert between database tables and annotated Go models",
		Long: `SchemaBridge reads tables from PostgreSQL, MySQL, or SQLite and generates annotated Go structs,
and reads annotated Go structs and generates CREATE TABLE statements for any of the three dialects.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ./schemabridge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(a.newGenerateCmd(), a.newSQLCmd(), a.newDialectsCmd())
	return rootCmd
}

// load runs before every subcommand, once its flags are parsed.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("config loaded", "file", used)
	}
	return nil
}

func (a *app) newDialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported SQL dialects and how each renders DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range dialect.All() {
				comments := p.Comments.String()
				if !p.SupportsComments() {
					comments += " (not read back)"
				}
				_, _ = fmt.Fprintf(a.stdout, "%s\n", color.New(color.Bold).Sprint(p.Dialect))
				_, _ = fmt.Fprintf(a.stdout, "  quote:          %s\n", p.Quote("name"))
				_, _ = fmt.Fprintf(a.stdout, "  auto increment: %s\n", p.AutoIncrement)
				_, _ = fmt.Fprintf(a.stdout, "  booleans:       %s/%s (native: %t)\n", p.BoolTrue, p.BoolFalse, p.NativeBool)
				_, _ = fmt.Fprintf(a.stdout, "  comments:       %s\n", comments)
				_, _ = fmt.Fprintf(a.stdout, "  unique:         %s\n", p.Unique)
			}
			return nil
		},
	}
}

// finish prints one status line per table, then the report if one was
// requested, and turns failed tables into errTablesFailed.
func (a *app) finish(results []pipeline.Result) error {
	for _, r := range results {
		warnings := len(r.Diagnostics.Warnings())
		switch {
		case !r.OK():
			_, _ = fmt.Fprintf(a.stderr, "%s %s: %v\n", color.New(color.FgRed).Sprint("FAILED"), r.Table, r.Err)
		case warnings > 0:
			_, _ = fmt.Fprintf(a.stderr, "%s   %s (%d warnings)\n", color.New(color.FgYellow).Sprint("WARN"), r.Table, warnings)
			for _, d := range r.Diagnostics.Warnings() {
				a.logger.Debug("diagnostic", "table", r.Table, "kind", d.Kind, "column", d.Column, "message", d.Message)
			}
		default:
			_, _ = fmt.Fprintf(a.stderr, "%s     %s\n", color.New(color.FgGreen).Sprint("OK"), r.Table)
		}
	}

	if a.cfg.Report != "" {
		reporter, err := formatter.NewReporter(a.cfg.Report, a.stderr)
		if err != nil {
			return err
		}
		if err := reporter.Format(results); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if s := pipeline.Summarize(results); s.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errTablesFailed, s.Failed, s.Tables)
	}
	return nil
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
