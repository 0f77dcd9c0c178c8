package tracker

import (
	"context"
	"fmt"

	"flinktrack/internal/tracking"
	"flinktrack/pkg/logging"
)

// Result is the outcome of an action wrapped by RefreshTracking. Value is
// the zero value when Err is set.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the action succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// RefreshTracking runs action for the job named by subject and keeps the
// job under observation afterwards, whether or not the action succeeded.
//
// A failing or panicking action is logged once and captured in the result;
// it never propagates to the caller. The job is polled right away so the
// effect of the action shows up without waiting for the next poll cycle.
func RefreshTracking[T any](ctx context.Context, t *Tracker, subject tracking.Subject, action func(context.Context) (T, error)) Result[T] {
	id := subject.TrackingIdentity()

	value, err := runAction(ctx, action)
	if err != nil {
		var zero T
		value = zero
		t.metrics.RecordActionFailure()
		logging.Error("Tracker", err, "Action for %s failed", id)
	}

	if id.IsZero() {
		logging.Warn("Tracker", "Action subject has no tracking identity, nothing to track")
		return Result[T]{Value: value, Err: err}
	}

	t.cache.Track(id)
	t.ensureWatch(id.Namespace)
	if rec, ok := t.cache.Get(id); ok && !rec.Observed.IsTerminal() {
		t.schedulePoll(id)
	}

	return Result[T]{Value: value, Err: err}
}

func runAction[T any](ctx context.Context, action func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return action(ctx)
}
