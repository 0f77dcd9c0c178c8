package formatting

import (
	"encoding/json"
	"fmt"
	"io"

	"flinktrack/internal/tracker"
)

// jobList is the document written by the structured formatters.
type jobList struct {
	Jobs  []tracker.JobSummary `json:"jobs"`
	Count int                  `json:"count"`
}

func newJobList(jobs []tracker.JobSummary) jobList {
	if jobs == nil {
		jobs = []tracker.JobSummary{}
	}
	return jobList{Jobs: jobs, Count: len(jobs)}
}

// writeJSON writes v as JSON indented by two spaces, followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
