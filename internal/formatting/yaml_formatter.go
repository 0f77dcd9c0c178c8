package formatting

import (
	"fmt"
	"io"

	"sigs.k8s.io/yaml"

	"flinktrack/internal/tracker"
)

// YAMLFormatter provides YAML output formatting. Field names follow the
// json tags of the tracker views.
type YAMLFormatter struct{}

// FormatJobs writes the jobs as a YAML document.
func (f *YAMLFormatter) FormatJobs(w io.Writer, jobs []tracker.JobSummary) error {
	return writeYAML(w, newJobList(jobs))
}

// FormatMetrics writes the metrics as a YAML document.
func (f *YAMLFormatter) FormatMetrics(w io.Writer, m tracker.MetricsSummary) error {
	return writeYAML(w, m)
}

func writeYAML(w io.Writer, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to format YAML: %w", err)
	}
	if _, err := w.Write(append([]byte("---\n"), out...)); err != nil {
		return err
	}
	return nil
}
