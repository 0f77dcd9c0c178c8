package formatting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"flinktrack/internal/poll"
	"flinktrack/internal/tracker"
	"flinktrack/internal/tracking"
)

func sampleJobs() []tracker.JobSummary {
	observedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return []tracker.JobSummary{
		{
			Namespace:   "prod",
			Name:        "job-7",
			AppID:       42,
			Observed:    tracking.StateRunning,
			ObservedAt:  &observedAt,
			Intent:      tracking.IntentSatisfied,
			WatchActive: true,
		},
		{
			Namespace:   "prod",
			Name:        "job-8",
			AppID:       43,
			Observed:    tracking.StateRunning,
			Expected:    tracking.StateCancelled,
			ExpectedAge: 90 * time.Second,
			Pending:     "1m30s",
			Intent:      tracking.IntentTracking,
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"table", "yaml", "json"} {
		f, err := ParseOutputFormat(s)
		require.NoError(t, err)
		assert.Equal(t, OutputFormat(s), f)
	}

	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &TableFormatter{}, NewFormatter(Options{Format: FormatTable}))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(Options{Format: FormatYAML}))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(Options{Format: FormatJSON}))
	assert.IsType(t, &TableFormatter{}, NewFormatter(Options{}))
}

func TestTableFormatter_FormatJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{}).FormatJobs(&buf, sampleJobs()))

	out := buf.String()
	for _, want := range []string{"NAMESPACE", "APP ID", "job-7", "42", "RUNNING", "CANCELLED", "1m30s", "TRACKING"} {
		assert.Contains(t, out, want)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var job7 string
	for _, line := range lines {
		if strings.Contains(line, "job-7") {
			job7 = line
		}
	}
	require.NotEmpty(t, job7)
	assert.Contains(t, job7, "yes")
	assert.NotContains(t, job7, "CANCELLED")
	assert.NotContains(t, out, "\x1b[", "no color codes without Color")
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(Options{}).FormatJobs(&buf, nil))
	assert.Equal(t, "No jobs tracked\n", buf.String())
}

func TestTableFormatter_FormatMetrics(t *testing.T) {
	var buf bytes.Buffer
	err := NewTableFormatter(Options{}).FormatMetrics(&buf, tracker.MetricsSummary{
		TrackedJobs: 2,
		Poll:        poll.Stats{Queries: 17},
		PerSource:   []tracker.SourceMetricsView{{Source: tracking.SourceWatch, Observations: 5}},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "tracked jobs")
	assert.Contains(t, out, "17")
	assert.Contains(t, out, "observations via watch")
}

func TestYAMLFormatter_FormatJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).FormatJobs(&buf, sampleJobs()))

	require.True(t, strings.HasPrefix(buf.String(), "---\n"))

	var doc struct {
		Count int                      `json:"count"`
		Jobs  []map[string]interface{} `json:"jobs"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 2, doc.Count)
	require.Len(t, doc.Jobs, 2)
	assert.Equal(t, "job-7", doc.Jobs[0]["name"])
	assert.Equal(t, "RUNNING", doc.Jobs[0]["observed"])
	assert.NotContains(t, doc.Jobs[0], "expected")
	assert.Equal(t, "CANCELLED", doc.Jobs[1]["expected"])
	assert.Equal(t, "1m30s", doc.Jobs[1]["pendingFor"])
}

func TestJSONFormatter_EmptyJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatJobs(&buf, nil))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, float64(0), doc["count"])
	assert.Equal(t, []interface{}{}, doc["jobs"])
}
