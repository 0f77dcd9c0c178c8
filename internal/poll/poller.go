package poll

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"flinktrack/internal/tracking"
	"flinktrack/pkg/logging"
)

// Config controls the poll fallback.
type Config struct {
	// Interval between poll cycles.
	Interval time.Duration

	// StaleAfter is how old a watch-covered record's last poll may get
	// before it is polled anyway.
	StaleAfter time.Duration

	// Concurrency bounds the queries in flight during one cycle.
	Concurrency int

	// QueryTimeout bounds a single status query.
	QueryTimeout time.Duration

	// QPS and Burst rate-limit queries against the API server. QPS <= 0
	// disables limiting.
	QPS   float64
	Burst int

	// LostGracePeriod is how long a job's resources may be missing before
	// the job is declared LOST.
	LostGracePeriod time.Duration
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		Interval:        10 * time.Second,
		StaleAfter:      60 * time.Second,
		Concurrency:     8,
		QueryTimeout:    5 * time.Second,
		QPS:             20,
		Burst:           10,
		LostGracePeriod: 30 * time.Second,
	}
}

// CycleResult summarizes one poll cycle.
type CycleResult struct {
	Candidates int
	Succeeded  int
	Failed     int
}

// Stats are cumulative poll counters.
type Stats struct {
	Cycles   int64 `json:"cycles"`
	Queries  int64 `json:"queries"`
	Failures int64 `json:"failures"`
	NotFound int64 `json:"notFound"`
}

// Poller periodically queries job state for records the watch does not
// cover, or covers with stale data.
type Poller struct {
	cfg      Config
	cache    *tracking.Cache
	querier  StatusQuerier
	observer tracking.Observer
	clock    clockwork.Clock
	limiter  *rate.Limiter

	// inflight deduplicates concurrent queries for the same identity.
	inflight singleflight.Group

	cycles   atomic.Int64
	queries  atomic.Int64
	failures atomic.Int64
	notFound atomic.Int64
}

// NewPoller creates a poller. Zero config fields fall back to DefaultConfig.
func NewPoller(cfg Config, cache *tracking.Cache, querier StatusQuerier, observer tracking.Observer, clock clockwork.Clock) *Poller {
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaults.StaleAfter
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaults.QueryTimeout
	}
	if cfg.LostGracePeriod < 0 {
		cfg.LostGracePeriod = 0
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.QPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.QPS), burst)
	}

	return &Poller{
		cfg:      cfg,
		cache:    cache,
		querier:  querier,
		observer: observer,
		clock:    clock,
		limiter:  limiter,
	}
}

// Run polls every Interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	logging.Info("Poller", "Polling every %s (concurrency %d, timeout %s)", p.cfg.Interval, p.cfg.Concurrency, p.cfg.QueryTimeout)
	for {
		select {
		case <-ctx.Done():
			logging.Debug("Poller", "Stopping poll loop")
			return
		case <-ticker.Chan():
			p.RunCycle(ctx)
		}
	}
}

// RunCycle runs one poll cycle over a snapshot of the tracked identities.
// Failed queries are logged and skipped; they never abort the cycle.
func (p *Poller) RunCycle(ctx context.Context) CycleResult {
	p.cycles.Add(1)
	candidates := p.candidates()
	result := CycleResult{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return result
	}

	var succeeded, failed atomic.Int64
	g := errgroup.Group{}
	g.SetLimit(p.cfg.Concurrency)
	for _, id := range candidates {
		g.Go(func() error {
			if err := p.PollNow(ctx, id); err != nil {
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	result.Succeeded = int(succeeded.Load())
	result.Failed = int(failed.Load())
	logging.Debug("Poller", "Poll cycle done: %d candidates, %d succeeded, %d failed", result.Candidates, result.Succeeded, result.Failed)
	return result
}

// candidates returns the non-terminal identities that lack watch coverage or
// whose last poll is older than StaleAfter.
func (p *Poller) candidates() []tracking.Identity {
	now := p.clock.Now()
	var out []tracking.Identity
	for _, id := range p.cache.AllTracked() {
		rec, ok := p.cache.Get(id)
		if !ok || rec.Observed.IsTerminal() {
			continue
		}
		if !rec.WatchActive || now.Sub(rec.LastPollAt) >= p.cfg.StaleAfter {
			out = append(out, id)
		}
	}
	return out
}

// PollNow queries id immediately. Concurrent calls for the same identity
// share one query.
func (p *Poller) PollNow(ctx context.Context, id tracking.Identity) error {
	_, err, _ := p.inflight.Do(id.String(), func() (interface{}, error) {
		return nil, p.poll(ctx, id)
	})
	return err
}

func (p *Poller) poll(ctx context.Context, id tracking.Identity) error {
	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.QueryTimeout)
	defer cancel()

	p.queries.Add(1)
	state, err := p.query(queryCtx, id)
	// Stamped whatever the outcome so a failing job is not retried in a tight loop.
	p.cache.StampPoll(id, p.clock.Now())

	switch {
	case IsNotFound(err):
		p.notFound.Add(1)
		p.handleMissing(id)
		return nil
	case err != nil:
		p.failures.Add(1)
		logging.Warn("Poller", "Status query for %s failed: %v", id, err)
		return fmt.Errorf("poll %s: %w", id, err)
	}

	if state == tracking.StateUnknown {
		return nil
	}
	p.cache.ClearMissing(id)
	p.observer.Observe(id, state, tracking.SourcePoll)
	return nil
}

func (p *Poller) query(ctx context.Context, id tracking.Identity) (tracking.JobState, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return tracking.StateUnknown, fmt.Errorf("rate limiter: %w", err)
	}
	return p.querier.QueryStatus(ctx, id.Namespace, id.Name)
}

// handleMissing applies the outcome of a query that found no resources. A job
// with a pending CANCELLED expectation is CANCELLED; anything else is LOST
// once it has been missing for LostGracePeriod.
func (p *Poller) handleMissing(id tracking.Identity) {
	now := p.clock.Now()
	since, ok := p.cache.MarkMissing(id, now)
	if !ok {
		return
	}
	rec, ok := p.cache.Get(id)
	if !ok || rec.Observed.IsTerminal() {
		return
	}

	if rec.Expected != nil && rec.Expected.State == tracking.StateCancelled {
		p.observer.Observe(id, tracking.StateCancelled, tracking.SourcePoll)
		return
	}

	missingFor := now.Sub(since)
	if missingFor < p.cfg.LostGracePeriod {
		logging.Debug("Poller", "Resources of %s missing for %s, waiting for grace period %s", id, missingFor, p.cfg.LostGracePeriod)
		return
	}
	p.observer.Observe(id, tracking.StateLost, tracking.SourcePoll)
}

// Stats returns cumulative counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Cycles:   p.cycles.Load(),
		Queries:  p.queries.Load(),
		Failures: p.failures.Load(),
		NotFound: p.notFound.Load(),
	}
}
