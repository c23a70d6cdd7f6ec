package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemabridge"
	"github.com/tordrt/schemabridge/internal/formatter"
)

type generateFlags struct {
	tables    string
	exclude   string
	all       bool
	overwrite bool
	dryRun    bool
}

func (a *app) newGenerateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate annotated Go models from database tables",
		Long: `Generate reads the selected tables from a live database and writes one annotated Go struct
per table. Without --output the models are printed to stdout.`,
		Example: `  schemabridge generate --database-url postgres://localhost/app --all --output models
  schemabridge generate --database-url sqlite:app.db --tables users,orders --crud --serde`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd, f)
		},
	}

	cmd.Flags().String("database-url", "", "Database URL (postgres://, mysql://, or sqlite:)")
	cmd.Flags().StringVarP(&f.tables, "tables", "t", "", "Tables to generate (comma-separated)")
	cmd.Flags().BoolVar(&f.all, "all", false, "Generate every table")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "Tables to skip (comma-separated)")
	cmd.Flags().StringP("output", "o", "", "Output directory (default: stdout)")
	cmd.Flags().String("package", "models", "Package name of the generated files")
	cmd.Flags().Bool("serde", false, "Add json tags")
	cmd.Flags().Bool("crud", false, "Add table metadata methods")
	cmd.Flags().BoolVar(&f.overwrite, "overwrite", false, "Replace existing files")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print files instead of writing them")
	cmd.Flags().String("soft-delete", "", "Soft-delete column, overriding detection")
	cmd.Flags().Int("workers", 0, "Tables processed at once (default: GOMAXPROCS)")
	cmd.Flags().String("report", "", "Write a run report to stderr: text, markdown, or yaml")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, f generateFlags) error {
	if a.cfg.DatabaseURL == "" {
		return fmt.Errorf("--database-url (or SCHEMABRIDGE_DATABASE_URL) must be specified")
	}
	tables := splitList(f.tables)
	if len(tables) == 0 && !f.all {
		return fmt.Errorf("one of --tables or --all must be specified")
	}
	if len(tables) > 0 && f.all {
		return fmt.Errorf("only one of --tables or --all can be specified")
	}

	results, err := schemabridge.Generate(cmd.Context(), a.cfg.DatabaseURL, &schemabridge.GenerateOptions{
		Tables:        tables,
		ExcludeTables: splitList(f.exclude),
		Package:       a.cfg.Package,
		Serialization: a.cfg.Serde,
		CRUD:          a.cfg.CRUD,
		Workers:       a.cfg.Workers,
		SoftDelete:    a.cfg.SoftDeleteFor,
		Logger:        a.logger,
	})
	if err != nil {
		return err
	}

	w := formatter.NewMultiFileWriter(a.cfg.Output)
	w.Overwrite = f.overwrite
	w.DryRun = f.dryRun || a.cfg.Output == ""
	w.Stdout = a.stdout

	outcomes, err := w.Write(results)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		switch o.Status {
		case formatter.FileWritten:
			a.logger.Info("wrote model", "table", o.Table, "path", o.Path)
		case formatter.FileSkipped:
			_, _ = fmt.Fprintf(a.stderr, "%s   %s (use --overwrite)\n", color.New(color.FgBlue).Sprint("SKIP"), o.Path)
		}
	}

	return a.finish(results)
}
