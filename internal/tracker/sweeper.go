package tracker

import (
	"context"

	"flinktrack/internal/events"
	"flinktrack/pkg/logging"
)

func (t *Tracker) runSweeper(ctx context.Context) {
	ticker := t.clock.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.sweepExpectations()
		}
	}
}

// sweepExpectations times out expectations older than ExpectationTimeout.
// Each timed-out expectation produces exactly one event; the observed state
// and the record itself are left alone.
func (t *Tracker) sweepExpectations() int {
	now := t.clock.Now()
	timedOut := 0
	for _, id := range t.cache.AllTracked() {
		rec, ok := t.cache.Get(id)
		if !ok || rec.Expected == nil {
			continue
		}
		if rec.Expected.Age(now) < t.cfg.ExpectationTimeout {
			continue
		}

		// Only the expectation inspected above is cleared; a newer one set
		// in between survives.
		exp, cleared := t.cache.ClearExpectedIf(id, rec.Expected.SetAt)
		if !cleared {
			continue
		}
		timedOut++
		t.metrics.RecordExpectationTimeout()
		t.bus.Publish(events.NewExpectationTimeout(id, exp, rec.Observed, now))
		logging.Warn("Tracker", "%s did not reach %s within %s, last observed %s", id, exp.State, t.cfg.ExpectationTimeout, rec.Observed)
	}
	return timedOut
}
