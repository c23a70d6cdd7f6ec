package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemabridge"
	"github.com/tordrt/schemabridge/internal/schema"
)

type sqlFlags struct {
	input string
	watch bool
}

func (a *app) newSQLCmd() *cobra.Command {
	var f sqlFlags

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Generate CREATE TABLE statements from annotated Go models",
		Long: `SQL reads every struct carrying a //schemabridge:table directive from a Go source file and
writes its CREATE TABLE, index, and comment statements for the chosen dialect.`,
		Example: `  schemabridge sql --input models/users.go --dialect postgres
  schemabridge sql --input models.go --dialect mysql --output schema.sql --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSQL(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Go source file with annotated models")
	cmd.Flags().StringP("dialect", "d", "", "Target dialect: mysql, postgres, or sqlite")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Regenerate whenever the input changes")
	cmd.Flags().String("soft-delete", "", "Soft-delete column for models whose directive names none")
	cmd.Flags().Int("workers", 0, "Models rendered at once (default: GOMAXPROCS)")
	cmd.Flags().String("report", "", "Write a run report to stderr: text, markdown, or yaml")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runSQL(ctx context.Context, f sqlFlags) error {
	if a.cfg.Dialect == "" {
		return fmt.Errorf("--dialect must be specified")
	}
	d, err := schema.ParseDialect(a.cfg.Dialect)
	if err != nil {
		return err
	}

	if !f.watch {
		return a.renderSQL(ctx, f.input, d)
	}
	return a.watchSQL(ctx, f.input, d)
}

func (a *app) renderSQL(ctx context.Context, input string, d schema.Dialect) error {
	results, err := schemabridge.SQLFile(ctx, input, d, &schemabridge.SQLOptions{
		SoftDelete: a.cfg.SoftDeleteFor(""),
		Workers:    a.cfg.Workers,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	out := schemabridge.JoinOutputs(results)
	if a.cfg.Output == "" {
		_, _ = fmt.Fprint(a.stdout, out)
	} else if err := os.WriteFile(a.cfg.Output, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	return a.finish(results)
}

// watchSQL renders once and again after every change to input until ctx is
// done. The parent directory is watched because editors often replace a
// file rather than write to it.
func (a *app) watchSQL(ctx context.Context, input string, d schema.Dialect) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("failed to resolve input path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	a.rerender(ctx, input, d)
	a.logger.Info("watching for changes", "input", input)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if name, _ := filepath.Abs(ev.Name); name != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				a.logger.Debug("input changed", "op", ev.Op.String())
				a.rerender(ctx, input, d)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", "error", err)
		}
	}
}

// rerender renders without ending the watch on failure.
func (a *app) rerender(ctx context.Context, input string, d schema.Dialect) {
	err := a.renderSQL(ctx, input, d)
	switch {
	case err == nil:
	case errors.Is(err, errTablesFailed):
		a.logger.Warn("render finished with failures", "error", err)
	default:
		a.logger.Error("render failed", "error", err)
	}
}
