package tracker

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"flinktrack/internal/events"
	"flinktrack/internal/poll"
	"flinktrack/internal/tracking"
	"flinktrack/internal/watch"
	"flinktrack/pkg/logging"
)

// Deps are the collaborators a Tracker works with. Cache and Bus are
// created when nil. Subscriber may be nil, in which case jobs are observed
// by polling only. Querier is required.
type Deps struct {
	Cache      *tracking.Cache
	Bus        *events.Bus
	Subscriber watch.Subscriber
	Querier    poll.StatusQuerier
	Clock      clockwork.Clock
}

// Tracker drives job observation and expectation reconciliation.
//
// It decides when a job is watched and when it is polled, applies every
// observation through the cache, publishes the resulting events and times
// out expectations that are never reached.
type Tracker struct {
	mu sync.Mutex

	cfg        Config
	cache      *tracking.Cache
	bus        *events.Bus
	subscriber watch.Subscriber
	poller     *poll.Poller
	clock      clockwork.Clock
	metrics    *Metrics

	// watches holds one entry per namespace with tracked jobs
	watches map[string]*namespaceWatch

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	running    bool
}

// New creates a tracker. It does not start any goroutine until Start.
func New(cfg Config, deps Deps) (*Tracker, error) {
	if deps.Querier == nil {
		return nil, fmt.Errorf("a status querier is required")
	}
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Cache == nil {
		deps.Cache = tracking.NewCache(deps.Clock)
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus()
	}
	if !cfg.WatchEnabled {
		deps.Subscriber = nil
	}

	t := &Tracker{
		cfg:        cfg,
		cache:      deps.Cache,
		bus:        deps.Bus,
		subscriber: deps.Subscriber,
		clock:      deps.Clock,
		metrics:    NewMetrics(),
		watches:    make(map[string]*namespaceWatch),
	}
	t.poller = poll.NewPoller(cfg.Poll, t.cache, deps.Querier, t, t.clock)
	return t, nil
}

// Cache returns the tracker's cache.
func (t *Tracker) Cache() *tracking.Cache {
	return t.cache
}

// Bus returns the bus the tracker publishes on.
func (t *Tracker) Bus() *events.Bus {
	return t.bus
}

// Start launches the poll loop, the expectation sweeper and a watch for
// every namespace that already has tracked jobs.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return nil
	}
	t.ctx, t.cancelFunc = context.WithCancel(ctx)
	t.running = true

	t.wg.Add(2)
	go func() {
		defer t.wg.Done()
		t.poller.Run(t.ctx)
	}()
	go func() {
		defer t.wg.Done()
		t.runSweeper(t.ctx)
	}()
	t.mu.Unlock()

	namespaces := make(map[string]struct{})
	for _, id := range t.cache.AllTracked() {
		namespaces[id.Namespace] = struct{}{}
	}
	for ns := range namespaces {
		t.ensureWatch(ns)
	}

	mode := "watch+poll"
	if t.subscriber == nil {
		mode = "poll only"
	}
	logging.Info("Tracker", "Started (%s, expectation timeout %s)", mode, t.cfg.ExpectationTimeout)
	return nil
}

// Stop tears down every watch subscription and waits for background work.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	var subs []watch.Subscription
	for _, w := range t.watches {
		if w.sub != nil {
			subs = append(subs, w.sub)
			w.sub = nil
		}
	}
	t.watches = make(map[string]*namespaceWatch)
	t.mu.Unlock()

	logging.Info("Tracker", "Stopping tracker...")
	t.cancelFunc()

	for _, sub := range subs {
		sub.Stop()
	}
	t.wg.Wait()

	logging.Info("Tracker", "Tracker stopped")
}

// IsRunning reports whether the tracker has been started and not stopped.
func (t *Tracker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Track puts id under observation. It returns true if id was not tracked before.
func (t *Tracker) Track(id tracking.Identity) bool {
	created := t.cache.Track(id)
	if created {
		logging.Info("Tracker", "Tracking %s", id)
	}
	t.ensureObservation(id)
	return created
}

// SetExpectation records that id should reach state and makes sure the job
// is observed. If the job is already in state, the expectation is satisfied
// right away.
func (t *Tracker) SetExpectation(id tracking.Identity, state tracking.JobState) error {
	if id.IsZero() {
		return fmt.Errorf("cannot set expectation for an empty identity")
	}
	if !state.IsValid() || state == tracking.StateUnknown {
		return fmt.Errorf("invalid expected state %q", state)
	}

	exp := t.cache.SetExpected(id, state)
	t.metrics.RecordExpectationSet()
	t.bus.Publish(events.NewExpectationSet(id, exp))
	logging.Info("Tracker", "Expecting %s to reach %s", id, state)

	if satisfied, ok := t.cache.SatisfyIfObserved(id, exp.SetAt); ok {
		t.metrics.RecordExpectationSatisfied()
		t.bus.Publish(events.NewExpectationSatisfied(tracking.Transition{
			Identity:  id,
			Old:       state,
			New:       state,
			At:        t.clock.Now(),
			Satisfied: &satisfied,
		}, tracking.SourceManual))
		return nil
	}

	t.ensureObservation(id)
	return nil
}

// Observe applies an observed state and publishes the outcome. It
// implements tracking.Observer for the watch adapter and the poller.
func (t *Tracker) Observe(id tracking.Identity, state tracking.JobState, source tracking.Source) bool {
	tr, ok := t.cache.UpsertObserved(id, state)
	t.metrics.RecordObservation(source, ok, t.clock.Now())
	if !ok {
		return false
	}

	t.bus.Publish(events.NewStateChanged(tr, source))
	if tr.Satisfied != nil {
		t.metrics.RecordExpectationSatisfied()
		t.bus.Publish(events.NewExpectationSatisfied(tr, source))
		logging.Info("Tracker", "%s reached expected state %s", id, state)
	}

	if state.IsTerminal() {
		logging.Info("Tracker", "%s is %s (was %s, via %s)", id, state, tr.Old, source)
	} else {
		logging.Debug("Tracker", "%s is %s (was %s, via %s)", id, state, tr.Old, source)
	}
	return true
}

// Remove stops tracking id. The namespace watch is released when id was the
// last tracked job in it.
func (t *Tracker) Remove(id tracking.Identity) bool {
	if !t.cache.Remove(id) {
		return false
	}
	logging.Info("Tracker", "No longer tracking %s", id)

	if len(t.cache.InNamespace(id.Namespace)) == 0 {
		t.releaseWatch(id.Namespace)
	}
	return true
}

// ensureObservation makes sure id is covered: a namespace watch when
// watching is available, and an immediate poll while no watch covers it.
func (t *Tracker) ensureObservation(id tracking.Identity) {
	t.ensureWatch(id.Namespace)

	rec, ok := t.cache.Get(id)
	if !ok || rec.WatchActive || rec.Observed.IsTerminal() {
		return
	}
	t.schedulePoll(id)
}

// schedulePoll polls id in the background. It does nothing before Start.
func (t *Tracker) schedulePoll(id tracking.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	ctx := t.ctx
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := t.poller.PollNow(ctx, id); err != nil {
			logging.Debug("Tracker", "Immediate poll of %s failed: %v", id, err)
		}
	}()
}

// Metrics returns a point-in-time view of the tracker's counters.
func (t *Tracker) Metrics() MetricsSummary {
	out := t.metrics.summary()
	out.TrackedJobs = t.cache.Len()
	out.Inconsistencies = t.cache.Inconsistencies()
	out.EventsPublished, out.EventDeliveryFailures, out.EventsDropped = t.bus.Stats()
	out.Poll = t.poller.Stats()
	return out
}

var _ tracking.Observer = (*Tracker)(nil)
