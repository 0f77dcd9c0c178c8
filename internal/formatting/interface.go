// Package formatting renders tracker views for the console.
//
// Three output formats are supported: a rich table for humans, and YAML or
// JSON for scripts.
package formatting

import (
	"fmt"
	"io"

	"flinktrack/internal/tracker"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatYAML  OutputFormat = "yaml"  // YAML output
	FormatJSON  OutputFormat = "json"  // JSON output
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatTable, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, yaml or json)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
}

// Formatter writes tracker views to w.
type Formatter interface {
	FormatJobs(w io.Writer, jobs []tracker.JobSummary) error
	FormatMetrics(w io.Writer, metrics tracker.MetricsSummary) error
}

// NewFormatter creates the appropriate formatter based on options
func NewFormatter(options Options) Formatter {
	switch options.Format {
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatJSON:
		return &JSONFormatter{}
	default:
		return &TableFormatter{options: options}
	}
}
