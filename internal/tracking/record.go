package tracking

import "time"

// Intent is the reconciliation phase of a tracked job's expectation.
// A job that is not in the cache is untracked.
type Intent string

const (
	// IntentTracking means an expectation is pending or the job is merely observed.
	IntentTracking Intent = "TRACKING"

	// IntentSatisfied means the last expectation was reached.
	IntentSatisfied Intent = "SATISFIED"

	// IntentTimedOut means the last expectation expired before it was reached.
	IntentTimedOut Intent = "TIMED_OUT"
)

// Source names where an observation came from.
type Source string

const (
	SourceWatch  Source = "watch"
	SourcePoll   Source = "poll"
	SourceManual Source = "manual"
)

// Expectation is the state a user or action wants a job to reach.
type Expectation struct {
	State JobState
	SetAt time.Time
}

// Age returns how long the expectation has been pending at now.
func (e Expectation) Age(now time.Time) time.Duration {
	return now.Sub(e.SetAt)
}

// TrackingRecord is a point-in-time copy of everything the cache knows about
// one job. Mutating a TrackingRecord has no effect on the cache.
type TrackingRecord struct {
	Identity Identity

	Observed   JobState
	ObservedAt time.Time

	// Expected is nil when no expectation is pending.
	Expected *Expectation

	WatchActive bool
	LastPollAt  time.Time

	// MissingSince is when the job's resource was first found absent, zero
	// while the resource is present.
	MissingSince time.Time

	Intent    Intent
	TrackedAt time.Time
}

// HasExpectation reports whether an expectation is pending.
func (r TrackingRecord) HasExpectation() bool {
	return r.Expected != nil
}

// Transition describes an applied change of observed state.
type Transition struct {
	Identity Identity
	Old      JobState
	New      JobState
	At       time.Time

	// Satisfied is the expectation that this transition fulfilled, if any.
	Satisfied *Expectation
}

// Observer applies observed job states coming from the cluster.
// Watch and poll components report through it rather than writing
// to the cache themselves, so that every transition is published.
type Observer interface {
	Observe(id Identity, state JobState, source Source) bool
}
