package tracking

import "strings"

// JobState is the lifecycle state of a Flink job as observed from the cluster.
type JobState string

const (
	StateUnknown    JobState = "UNKNOWN"
	StateStarting   JobState = "STARTING"
	StateRunning    JobState = "RUNNING"
	StateCancelling JobState = "CANCELLING"
	StateCancelled  JobState = "CANCELLED"
	StateFailed     JobState = "FAILED"
	StateFinished   JobState = "FINISHED"

	// StateLost marks a job whose resource disappeared without an observed
	// terminal transition. It is reported as a failure.
	StateLost JobState = "LOST"
)

var allStates = []JobState{
	StateUnknown,
	StateStarting,
	StateRunning,
	StateCancelling,
	StateCancelled,
	StateFailed,
	StateFinished,
	StateLost,
}

// ParseJobState maps a string onto a JobState, case-insensitively.
// Unrecognised input yields StateUnknown.
func ParseJobState(s string) JobState {
	upper := JobState(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range allStates {
		if st == upper {
			return st
		}
	}
	return StateUnknown
}

// IsValid reports whether s is one of the defined states.
func (s JobState) IsValid() bool {
	for _, st := range allStates {
		if st == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle progress is expected.
func (s JobState) IsTerminal() bool {
	switch s {
	case StateCancelled, StateFailed, StateFinished, StateLost:
		return true
	default:
		return false
	}
}

// IsFailure reports whether the state should be shown as a failure.
func (s JobState) IsFailure() bool {
	return s == StateFailed || s == StateLost
}

// CanTransitionTo reports whether replacing s with next is a legal observed
// transition. Terminal states may only be replaced by LOST, LOST is final,
// and nothing regresses to UNKNOWN. Equal states are not a transition.
func (s JobState) CanTransitionTo(next JobState) bool {
	if s == next || next == StateUnknown || !next.IsValid() {
		return false
	}
	if s == StateLost {
		return false
	}
	if s.IsTerminal() {
		return next == StateLost
	}
	return true
}

func (s JobState) String() string {
	return string(s)
}
