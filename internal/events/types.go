package events

import (
	"time"

	"github.com/google/uuid"

	"flinktrack/internal/tracking"
)

// Type is the kind of a tracker event.
type Type string

const (
	// TypeStateChanged is published after an observed state transition was applied.
	TypeStateChanged Type = "StateChanged"

	// TypeExpectationSet is published when a new expectation is recorded.
	TypeExpectationSet Type = "ExpectationSet"

	// TypeExpectationSatisfied is published once when an observed transition
	// reaches the pending expectation.
	TypeExpectationSatisfied Type = "ExpectationSatisfied"

	// TypeExpectationTimeout is published once when an expectation expires.
	TypeExpectationTimeout Type = "ExpectationTimeout"
)

// Event is an immutable notification about a tracked job.
//
// OldState and NewState are set for TypeStateChanged. Expected is set for
// the expectation events.
type Event struct {
	ID        string
	Type      Type
	Identity  tracking.Identity
	OldState  tracking.JobState
	NewState  tracking.JobState
	Expected  tracking.JobState
	Source    tracking.Source
	Timestamp time.Time

	// ExpectedSetAt is when the expectation was recorded.
	ExpectedSetAt time.Time
}

// NewStateChanged creates the event for an applied transition.
func NewStateChanged(tr tracking.Transition, source tracking.Source) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      TypeStateChanged,
		Identity:  tr.Identity,
		OldState:  tr.Old,
		NewState:  tr.New,
		Source:    source,
		Timestamp: tr.At,
	}
}

// NewExpectationSet creates the event for a recorded expectation.
func NewExpectationSet(id tracking.Identity, exp tracking.Expectation) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      TypeExpectationSet,
		Identity:  id,
		Expected:  exp.State,
		Source:    tracking.SourceManual,
		Timestamp: exp.SetAt,

		ExpectedSetAt: exp.SetAt,
	}
}

// NewExpectationSatisfied creates the event for a satisfied expectation.
func NewExpectationSatisfied(tr tracking.Transition, source tracking.Source) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      TypeExpectationSatisfied,
		Identity:  tr.Identity,
		OldState:  tr.Old,
		NewState:  tr.New,
		Expected:  tr.Satisfied.State,
		Source:    source,
		Timestamp: tr.At,

		ExpectedSetAt: tr.Satisfied.SetAt,
	}
}

// NewExpectationTimeout creates the event for an expired expectation.
// observed is the state the job was in when the expectation expired.
func NewExpectationTimeout(id tracking.Identity, exp tracking.Expectation, observed tracking.JobState, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      TypeExpectationTimeout,
		Identity:  id,
		NewState:  observed,
		Expected:  exp.State,
		Timestamp: at,

		ExpectedSetAt: exp.SetAt,
	}
}

// Reason is the Kubernetes Event reason written for a tracker event.
type Reason string

const (
	ReasonJobStarting          Reason = "FlinkJobStarting"
	ReasonJobRunning           Reason = "FlinkJobRunning"
	ReasonJobCancelling        Reason = "FlinkJobCancelling"
	ReasonJobCancelled         Reason = "FlinkJobCancelled"
	ReasonJobFinished          Reason = "FlinkJobFinished"
	ReasonJobFailed            Reason = "FlinkJobFailed"
	ReasonJobLost              Reason = "FlinkJobLost"
	ReasonExpectationSet       Reason = "FlinkJobExpectationSet"
	ReasonExpectationSatisfied Reason = "FlinkJobExpectationSatisfied"
	ReasonExpectationTimeout   Reason = "FlinkJobExpectationTimedOut"
)

// EventType is the Kubernetes Event type.
type EventType string

const (
	EventTypeNormal  EventType = "Normal"
	EventTypeWarning EventType = "Warning"
)

// reasonFor maps a tracker event onto a Kubernetes Event reason.
func reasonFor(ev Event) (Reason, bool) {
	switch ev.Type {
	case TypeExpectationSet:
		return ReasonExpectationSet, true
	case TypeExpectationSatisfied:
		return ReasonExpectationSatisfied, true
	case TypeExpectationTimeout:
		return ReasonExpectationTimeout, true
	case TypeStateChanged:
		switch ev.NewState {
		case tracking.StateStarting:
			return ReasonJobStarting, true
		case tracking.StateRunning:
			return ReasonJobRunning, true
		case tracking.StateCancelling:
			return ReasonJobCancelling, true
		case tracking.StateCancelled:
			return ReasonJobCancelled, true
		case tracking.StateFinished:
			return ReasonJobFinished, true
		case tracking.StateFailed:
			return ReasonJobFailed, true
		case tracking.StateLost:
			return ReasonJobLost, true
		}
	}
	return "", false
}

// ExpectationAge returns how long the expectation had been pending when the
// event was emitted. It is zero for events without an expectation.
func (e Event) ExpectationAge() time.Duration {
	if e.ExpectedSetAt.IsZero() {
		return 0
	}
	return e.Timestamp.Sub(e.ExpectedSetAt)
}

// getEventType returns the Kubernetes Event type for a reason.
func getEventType(reason Reason) EventType {
	switch reason {
	case ReasonJobFailed, ReasonJobLost, ReasonExpectationTimeout:
		return EventTypeWarning
	default:
		return EventTypeNormal
	}
}
