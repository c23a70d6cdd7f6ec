// Package pipeline runs one independent job per table and collects one
// outcome per table.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/schemabridge/internal/diag"
	"github.com/tordrt/schemabridge/internal/schema"
)

// Result is the outcome of one table.
type Result struct {
	Table       string
	Spec        schema.TableSpec
	Output      string
	Diagnostics diag.List
	// Err is set when the table produced no output.
	Err      error
	Duration time.Duration
}

// OK reports whether the table produced output.
func (r Result) OK() bool {
	return r.Err == nil
}

// Worker processes one table. It reports failure through Result.Err and
// never aborts the run.
type Worker func(ctx context.Context, table string) Result

// Options configures Run.
type Options struct {
	// Workers bounds concurrency. Zero means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Run calls worker once per table and returns the results in input order.
// A failing or panicking table does not stop the others. When ctx is
// cancelled, tables that have not started are reported with ctx.Err().
func Run(ctx context.Context, tables []string, worker Worker, opts Options) []Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]Result, len(tables))

	var eg errgroup.Group
	eg.SetLimit(workers)

	for i, table := range tables {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Table: table, Err: err}
				return nil
			}

			start := time.Now()
			results[i] = runOne(ctx, table, worker)
			results[i].Duration = time.Since(start)

			r := results[i]
			if r.Err != nil {
				logger.Debug("table failed", "table", table, "error", r.Err, "duration", r.Duration)
			} else {
				logger.Debug("table done", "table", table, "warnings", len(r.Diagnostics.Warnings()), "duration", r.Duration)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func runOne(ctx context.Context, table string, worker Worker) (r Result) {
	defer func() {
		if p := recover(); p != nil {
			r = Result{Table: table, Err: fmt.Errorf("panic while processing %s: %v", table, p)}
		}
	}()

	r = worker(ctx, table)
	if r.Table == "" {
		r.Table = table
	}
	if r.Err == nil && r.Diagnostics.HasErrors() {
		r.Err = r.Diagnostics.Err()
	}
	return r
}

// Summary counts outcomes across a run.
type Summary struct {
	Tables   int
	Failed   int
	Warnings int
}

// Summarize counts results.
func Summarize(results []Result) Summary {
	s := Summary{Tables: len(results)}
	for _, r := range results {
		if !r.OK() {
			s.Failed++
		}
		s.Warnings += len(r.Diagnostics.Warnings())
	}
	return s
}

// Failed returns the results that produced no output.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
