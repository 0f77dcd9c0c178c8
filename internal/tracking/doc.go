// Package tracking holds the data model of the Flink job tracker and the
// cache that owns it.
//
// An Identity names one job (namespace, Flink cluster-id, console
// application id). The Cache keeps one TrackingRecord per identity with the
// last observed JobState, a pending Expectation, watch coverage and poll
// bookkeeping. All mutation of tracking state goes through the Cache; other
// packages never hold their own copy.
//
// Observed states follow a small state machine (see JobState.CanTransitionTo):
// terminal states are only replaced by LOST and LOST is final. Rejected
// transitions are logged and counted, never returned as errors.
package tracking
