package tracker

import (
	"time"

	"flinktrack/internal/tracking"
)

// JobSummary is the console-facing view of one tracked job.
type JobSummary struct {
	Namespace   string            `json:"namespace"`
	Name        string            `json:"name"`
	AppID       int64             `json:"appId"`
	Observed    tracking.JobState `json:"observed"`
	ObservedAt  *time.Time        `json:"observedAt,omitempty"`
	Expected    tracking.JobState `json:"expected,omitempty"`
	ExpectedAge time.Duration     `json:"-"`
	Pending     string            `json:"pendingFor,omitempty"`
	Intent      tracking.Intent   `json:"intent"`
	WatchActive bool              `json:"watchActive"`
	LastPollAt  *time.Time        `json:"lastPollAt,omitempty"`
}

// HasExpectation reports whether an expectation is pending.
func (s JobSummary) HasExpectation() bool {
	return s.Expected != ""
}

// Summary returns a view of every tracked job, sorted by identity.
func (t *Tracker) Summary() []JobSummary {
	now := t.clock.Now()
	ids := t.cache.AllTracked()
	out := make([]JobSummary, 0, len(ids))
	for _, id := range ids {
		rec, ok := t.cache.Get(id)
		if !ok {
			continue
		}
		out = append(out, summarize(rec, now))
	}
	return out
}

func summarize(rec tracking.TrackingRecord, now time.Time) JobSummary {
	s := JobSummary{
		Namespace:   rec.Identity.Namespace,
		Name:        rec.Identity.Name,
		AppID:       rec.Identity.AppID,
		Observed:    rec.Observed,
		ObservedAt:  timePtr(rec.ObservedAt),
		Intent:      rec.Intent,
		WatchActive: rec.WatchActive,
		LastPollAt:  timePtr(rec.LastPollAt),
	}
	if rec.Expected != nil {
		s.Expected = rec.Expected.State
		s.ExpectedAge = rec.Expected.Age(now)
		s.Pending = s.ExpectedAge.Round(time.Second).String()
	}
	return s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
