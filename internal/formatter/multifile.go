package formatter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tordrt/schemabridge/internal/pipeline"
)

// FileStatus is what happened to one output file.
type FileStatus string

const (
	FileWritten FileStatus = "written"
	FileSkipped FileStatus = "skipped" // exists and Overwrite is off
	FilePrinted FileStatus = "printed" // dry run
	FileFailed  FileStatus = "failed"  // table had no output
)

// FileOutcome describes one file handled by MultiFileWriter.
type FileOutcome struct {
	Table  string
	Path   string
	Status FileStatus
}

// MultiFileWriter writes one file per table into a directory
type MultiFileWriter struct {
	OutputDir string
	Extension string // defaults to ".go"
	Overwrite bool
	DryRun    bool
	// Stdout receives file contents on a dry run.
	Stdout io.Writer
}

// NewMultiFileWriter creates a new multi-file writer
func NewMultiFileWriter(outputDir string) *MultiFileWriter {
	return &MultiFileWriter{
		OutputDir: outputDir,
		Extension: ".go",
		Stdout:    os.Stdout,
	}
}

// Write writes the output of every successful result to <dir>/<table><ext>.
// Failed results are listed but never touch the file system.
func (w *MultiFileWriter) Write(results []pipeline.Result) ([]FileOutcome, error) {
	if !w.DryRun {
		// Create output directory if it doesn't exist
		if err := os.MkdirAll(w.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	outcomes := make([]FileOutcome, 0, len(results))
	for _, r := range results {
		path := w.PathFor(r.Table)
		if !r.OK() {
			outcomes = append(outcomes, FileOutcome{Table: r.Table, Path: path, Status: FileFailed})
			continue
		}

		status, err := w.writeFile(path, r.Output)
		if err != nil {
			return outcomes, fmt.Errorf("failed to write file for %s: %w", r.Table, err)
		}
		outcomes = append(outcomes, FileOutcome{Table: r.Table, Path: path, Status: status})
	}
	return outcomes, nil
}

// PathFor returns the output path of a table
func (w *MultiFileWriter) PathFor(table string) string {
	ext := w.Extension
	if ext == "" {
		ext = ".go"
	}
	return filepath.Join(w.OutputDir, table+ext)
}

func (w *MultiFileWriter) writeFile(path, content string) (FileStatus, error) {
	if w.DryRun {
		out := w.Stdout
		if out == nil {
			out = os.Stdout
		}
		_, _ = fmt.Fprintf(out, "// ---- %s ----\n%s\n", path, content)
		return FilePrinted, nil
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !w.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	file, err := os.OpenFile(path, flags, 0644)
	if errors.Is(err, os.ErrExist) {
		return FileSkipped, nil
	}
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	if _, err := io.WriteString(file, content); err != nil {
		return "", err
	}
	return FileWritten, nil
}
