package formatting

import (
	"io"

	"flinktrack/internal/tracker"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct{}

// FormatJobs writes the jobs as one indented JSON object.
func (f *JSONFormatter) FormatJobs(w io.Writer, jobs []tracker.JobSummary) error {
	return writeJSON(w, newJobList(jobs))
}

// FormatMetrics writes the metrics as indented JSON.
func (f *JSONFormatter) FormatMetrics(w io.Writer, m tracker.MetricsSummary) error {
	return writeJSON(w, m)
}
