// Package tracker is the reconciler that ties the tracking cache to its
// sources of truth.
//
// A Tracker keeps one watch subscription per namespace that has tracked
// jobs, resubscribing with exponential backoff when a watch fails. Jobs that
// are not covered by a live watch are handed to the poller on every poll
// interval. A sweeper times out expectations that were not reached before
// their deadline. Every state change, expectation outcome and loss is
// published on the event bus.
//
// Callers record intent with Track, SetExpectation and Remove, and read
// the current picture with Summary and Metrics.
package tracker
