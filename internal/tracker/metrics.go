package tracker

import (
	"sort"
	"sync"
	"time"

	"flinktrack/internal/poll"
	"flinktrack/internal/tracking"
	"flinktrack/pkg/logging"
)

// Metrics tracks observation and expectation counters for monitoring.
//
// Observations are counted per source so that a watch that silently stopped
// delivering shows up as poll observations taking over.
type Metrics struct {
	mu sync.RWMutex

	sourceMetrics map[tracking.Source]*sourceMetrics

	expectationsSet       int64
	expectationsSatisfied int64
	expectationsTimedOut  int64
	watchErrors           int64
	watchRestarts         int64
	actionFailures        int64
}

type sourceMetrics struct {
	Source         tracking.Source
	Observations   int64
	Transitions    int64
	LastObservedAt time.Time
}

// NewMetrics creates an empty metrics set.
func NewMetrics() *Metrics {
	return &Metrics{
		sourceMetrics: make(map[tracking.Source]*sourceMetrics),
	}
}

func (m *Metrics) getOrCreateSourceMetrics(source tracking.Source) *sourceMetrics {
	if metrics, exists := m.sourceMetrics[source]; exists {
		return metrics
	}
	metrics := &sourceMetrics{Source: source}
	m.sourceMetrics[source] = metrics
	return metrics
}

// RecordObservation records one observation and whether it caused a transition.
func (m *Metrics) RecordObservation(source tracking.Source, transitioned bool, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreateSourceMetrics(source)
	metrics.Observations++
	metrics.LastObservedAt = at
	if transitioned {
		metrics.Transitions++
	}
}

func (m *Metrics) RecordExpectationSet() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectationsSet++
}

func (m *Metrics) RecordExpectationSatisfied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectationsSatisfied++
}

func (m *Metrics) RecordExpectationTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectationsTimedOut++
}

// RecordWatchError records a failed namespace watch.
func (m *Metrics) RecordWatchError(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchErrors++

	logging.Debug("TrackerMetrics", "Watch error in namespace %s (total: %d)", namespace, m.watchErrors)
}

func (m *Metrics) RecordWatchRestart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchRestarts++
}

func (m *Metrics) RecordActionFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actionFailures++
}

// MetricsSummary is a point-in-time view of tracker metrics.
type MetricsSummary struct {
	TrackedJobs           int                 `json:"tracked_jobs"`
	ExpectationsSet       int64               `json:"expectations_set"`
	ExpectationsSatisfied int64               `json:"expectations_satisfied"`
	ExpectationsTimedOut  int64               `json:"expectations_timed_out"`
	Inconsistencies       int64               `json:"inconsistencies"`
	WatchErrors           int64               `json:"watch_errors"`
	WatchRestarts         int64               `json:"watch_restarts"`
	ActionFailures        int64               `json:"action_failures"`
	EventsPublished       int64               `json:"events_published"`
	EventDeliveryFailures int64               `json:"event_delivery_failures"`
	EventsDropped         int64               `json:"events_dropped"`
	Poll                  poll.Stats          `json:"poll"`
	PerSource             []SourceMetricsView `json:"per_source"`
}

// SourceMetricsView is a read-only view of per-source counters.
type SourceMetricsView struct {
	Source         tracking.Source `json:"source"`
	Observations   int64           `json:"observations"`
	Transitions    int64           `json:"transitions"`
	LastObservedAt time.Time       `json:"last_observed_at,omitempty"`
}

// summary fills the counters owned by Metrics; the caller adds the rest.
func (m *Metrics) summary() MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := MetricsSummary{
		ExpectationsSet:       m.expectationsSet,
		ExpectationsSatisfied: m.expectationsSatisfied,
		ExpectationsTimedOut:  m.expectationsTimedOut,
		WatchErrors:           m.watchErrors,
		WatchRestarts:         m.watchRestarts,
		ActionFailures:        m.actionFailures,
		PerSource:             make([]SourceMetricsView, 0, len(m.sourceMetrics)),
	}
	for _, sm := range m.sourceMetrics {
		out.PerSource = append(out.PerSource, SourceMetricsView{
			Source:         sm.Source,
			Observations:   sm.Observations,
			Transitions:    sm.Transitions,
			LastObservedAt: sm.LastObservedAt,
		})
	}
	sort.Slice(out.PerSource, func(i, j int) bool {
		return out.PerSource[i].Source < out.PerSource[j].Source
	})
	return out
}
