package formatter

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemabridge/internal/pipeline"
)

// Report formats.
const (
	ReportText     = "text"
	ReportMarkdown = "markdown"
	ReportYAML     = "yaml"
)

// Reporter writes a run report.
type Reporter interface {
	Format(results []pipeline.Result) error
}

// NewReporter returns the reporter for format.
func NewReporter(format string, w io.Writer) (Reporter, error) {
	switch format {
	case ReportText, "":
		return NewTextFormatter(w), nil
	case ReportMarkdown, "md":
		return NewMarkdownFormatter(w), nil
	case ReportYAML, "yml":
		return NewYAMLFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid report format: %s (must be 'text', 'markdown', or 'yaml')", format)
	}
}

// YAMLFormatter writes a machine-readable run report
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new yaml formatter
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

type yamlReport struct {
	Tables   int         `yaml:"tables"`
	Failed   int         `yaml:"failed"`
	Warnings int         `yaml:"warnings"`
	Results  []yamlTable `yaml:"results"`
}

type yamlTable struct {
	Table       string           `yaml:"table"`
	Status      string           `yaml:"status"`
	Error       string           `yaml:"error,omitempty"`
	PrimaryKey  string           `yaml:"primary_key,omitempty"`
	SoftDelete  string           `yaml:"soft_delete,omitempty"`
	Columns     int              `yaml:"columns,omitempty"`
	DurationMS  int64            `yaml:"duration_ms"`
	Diagnostics []yamlDiagnostic `yaml:"diagnostics,omitempty"`
}

type yamlDiagnostic struct {
	Kind     string `yaml:"kind"`
	Severity string `yaml:"severity"`
	Column   string `yaml:"column,omitempty"`
	Message  string `yaml:"message"`
}

// Format writes the report as a single yaml document
func (f *YAMLFormatter) Format(results []pipeline.Result) error {
	s := pipeline.Summarize(results)
	report := yamlReport{Tables: s.Tables, Failed: s.Failed, Warnings: s.Warnings}

	for _, r := range results {
		t := yamlTable{
			Table:      r.Table,
			Status:     status(r),
			Columns:    len(r.Spec.Columns),
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			t.Error = r.Err.Error()
		}
		t.PrimaryKey, _ = r.Spec.PrimaryKey()
		t.SoftDelete, _ = r.Spec.SoftDeleteColumn()
		for _, d := range r.Diagnostics {
			t.Diagnostics = append(t.Diagnostics, yamlDiagnostic{
				Kind:     string(d.Kind),
				Severity: d.Severity.String(),
				Column:   d.Column,
				Message:  d.Message,
			})
		}
		report.Results = append(report.Results, t)
	}

	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
