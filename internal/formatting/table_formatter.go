package formatting

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"flinktrack/internal/tracker"
	"flinktrack/internal/tracking"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) *TableFormatter {
	return &TableFormatter{options: options}
}

// FormatJobs renders one row per tracked job.
func (f *TableFormatter) FormatJobs(w io.Writer, jobs []tracker.JobSummary) error {
	if len(jobs) == 0 {
		_, err := fmt.Fprintln(w, f.colorize(text.FgYellow, "No jobs tracked"))
		return err
	}

	t := f.createTable(w)
	t.AppendHeader(f.header("NAMESPACE", "NAME", "APP ID", "OBSERVED", "EXPECTED", "PENDING", "INTENT", "WATCHED"))

	for _, job := range jobs {
		t.AppendRow(table.Row{
			job.Namespace,
			job.Name,
			strconv.FormatInt(job.AppID, 10),
			f.state(job.Observed),
			orDash(string(job.Expected)),
			orDash(job.Pending),
			f.intent(job.Intent),
			yesNo(job.WatchActive),
		})
	}

	t.Render()
	return nil
}

// FormatMetrics renders the tracker counters as key/value pairs.
func (f *TableFormatter) FormatMetrics(w io.Writer, m tracker.MetricsSummary) error {
	t := f.createTable(w)
	t.AppendHeader(f.header("METRIC", "VALUE"))

	t.AppendRows([]table.Row{
		{"tracked jobs", m.TrackedJobs},
		{"expectations set", m.ExpectationsSet},
		{"expectations satisfied", m.ExpectationsSatisfied},
		{"expectations timed out", m.ExpectationsTimedOut},
		{"inconsistent transitions", m.Inconsistencies},
		{"watch errors", m.WatchErrors},
		{"watch restarts", m.WatchRestarts},
		{"poll cycles", m.Poll.Cycles},
		{"poll queries", m.Poll.Queries},
		{"poll failures", m.Poll.Failures},
		{"events published", m.EventsPublished},
		{"events dropped", m.EventsDropped},
	})
	for _, s := range m.PerSource {
		t.AppendRow(table.Row{fmt.Sprintf("observations via %s", s.Source), s.Observations})
	}

	t.Render()
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if f.options.Color {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	return t
}

func (f *TableFormatter) header(names ...string) table.Row {
	row := make(table.Row, 0, len(names))
	for _, name := range names {
		row = append(row, f.colorize(text.FgHiCyan, name))
	}
	return row
}

func (f *TableFormatter) state(s tracking.JobState) string {
	switch {
	case s.IsFailure():
		return f.colorize(text.FgRed, string(s))
	case s == tracking.StateRunning:
		return f.colorize(text.FgGreen, string(s))
	case s.IsTerminal():
		return f.colorize(text.FgHiBlack, string(s))
	default:
		return f.colorize(text.FgYellow, string(s))
	}
}

func (f *TableFormatter) intent(i tracking.Intent) string {
	if i == tracking.IntentTimedOut {
		return f.colorize(text.FgRed, string(i))
	}
	return string(i)
}

func (f *TableFormatter) colorize(color text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return color.Sprint(s)
}
