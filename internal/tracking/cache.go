package tracking

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"flinktrack/pkg/logging"
)

// entry holds one record and the lock that serializes operations on it.
type entry struct {
	mu      sync.Mutex
	rec     TrackingRecord
	removed bool
}

// Cache is the single owner of tracking records.
//
// The map lock only guards membership. Each record carries its own mutex, so
// operations on one identity are serialized while operations on different
// identities proceed independently. Nothing in Cache blocks on I/O.
type Cache struct {
	mu      sync.RWMutex
	entries map[Identity]*entry

	clock clockwork.Clock

	inconsistencies atomic.Int64
}

// NewCache creates an empty cache. A nil clock uses the real clock.
func NewCache(clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		entries: make(map[Identity]*entry),
		clock:   clock,
	}
}

func (c *Cache) lookup(id Identity) *entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id]
}

func (c *Cache) getOrCreate(id Identity) (*entry, bool) {
	if e := c.lookup(id); e != nil {
		return e, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		return e, false
	}
	e := &entry{rec: TrackingRecord{
		Identity:  id,
		Observed:  StateUnknown,
		Intent:    IntentTracking,
		TrackedAt: c.clock.Now(),
	}}
	c.entries[id] = e
	return e, true
}

// withEntry runs fn under the record lock of id. It returns false if the
// identity is not tracked.
func (c *Cache) withEntry(id Identity, fn func(rec *TrackingRecord)) bool {
	e := c.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return false
	}
	fn(&e.rec)
	return true
}

// Track ensures a record exists for id. It returns true if the record was created.
func (c *Cache) Track(id Identity) bool {
	_, created := c.getOrCreate(id)
	if created {
		logging.Debug("Cache", "Tracking %s", id)
	}
	return created
}

// UpsertObserved applies a new observed state for id.
//
// The transition is applied only if it differs from the current state and
// is legal. Illegal transitions are logged as inconsistencies and leave the
// record untouched. Untracked identities are ignored. On success the caller
// is responsible for publishing the returned transition.
func (c *Cache) UpsertObserved(id Identity, state JobState) (Transition, bool) {
	var (
		tr      Transition
		applied bool
	)
	c.withEntry(id, func(rec *TrackingRecord) {
		old := rec.Observed
		if old == state {
			return
		}
		if !old.CanTransitionTo(state) {
			c.inconsistencies.Add(1)
			logging.Warn("Cache", "Rejected inconsistent transition %s -> %s for %s", old, state, id)
			return
		}

		now := c.clock.Now()
		rec.Observed = state
		rec.ObservedAt = now
		if !state.IsTerminal() {
			rec.MissingSince = time.Time{}
		}

		tr = Transition{Identity: id, Old: old, New: state, At: now}
		if rec.Expected != nil && rec.Expected.State == state {
			satisfied := *rec.Expected
			tr.Satisfied = &satisfied
			rec.Expected = nil
			rec.Intent = IntentSatisfied
		}
		applied = true
	})
	return tr, applied
}

// SetExpected records an expectation for id, replacing any previous one.
// The record is created if needed.
func (c *Cache) SetExpected(id Identity, state JobState) Expectation {
	for {
		e, _ := c.getOrCreate(id)

		e.mu.Lock()
		if e.removed {
			// Evicted between lookup and lock; start over with a fresh record.
			e.mu.Unlock()
			continue
		}
		exp := Expectation{State: state, SetAt: c.clock.Now()}
		e.rec.Expected = &exp
		e.rec.Intent = IntentTracking
		e.mu.Unlock()
		return exp
	}
}

// SatisfyIfObserved clears the expectation set at setAt if the observed state
// already matches it.
func (c *Cache) SatisfyIfObserved(id Identity, setAt time.Time) (Expectation, bool) {
	var (
		satisfied Expectation
		ok        bool
	)
	c.withEntry(id, func(rec *TrackingRecord) {
		if rec.Expected == nil || !rec.Expected.SetAt.Equal(setAt) || rec.Observed != rec.Expected.State {
			return
		}
		satisfied = *rec.Expected
		rec.Expected = nil
		rec.Intent = IntentSatisfied
		ok = true
	})
	return satisfied, ok
}

// ClearExpectedIf clears the pending expectation of id only if it is the
// one that was set at setAt. It returns the cleared expectation.
func (c *Cache) ClearExpectedIf(id Identity, setAt time.Time) (Expectation, bool) {
	var (
		cleared Expectation
		ok      bool
	)
	c.withEntry(id, func(rec *TrackingRecord) {
		if rec.Expected == nil || !rec.Expected.SetAt.Equal(setAt) {
			return
		}
		cleared = *rec.Expected
		rec.Expected = nil
		rec.Intent = IntentTimedOut
		ok = true
	})
	return cleared, ok
}

// SetWatchActive records whether a live watch currently covers id.
func (c *Cache) SetWatchActive(id Identity, active bool) bool {
	return c.withEntry(id, func(rec *TrackingRecord) {
		rec.WatchActive = active
	})
}

// StampPoll records a poll attempt for id.
func (c *Cache) StampPoll(id Identity, at time.Time) bool {
	return c.withEntry(id, func(rec *TrackingRecord) {
		rec.LastPollAt = at
	})
}

// MarkMissing records that id's resource was found absent at t. The first
// absence is kept; it returns the time the resource has been missing since.
func (c *Cache) MarkMissing(id Identity, t time.Time) (time.Time, bool) {
	var since time.Time
	ok := c.withEntry(id, func(rec *TrackingRecord) {
		if rec.MissingSince.IsZero() {
			rec.MissingSince = t
		}
		since = rec.MissingSince
	})
	return since, ok
}

// ClearMissing records that id's resource is present again.
func (c *Cache) ClearMissing(id Identity) bool {
	return c.withEntry(id, func(rec *TrackingRecord) {
		rec.MissingSince = time.Time{}
	})
}

// Get returns a copy of the record for id.
func (c *Cache) Get(id Identity) (TrackingRecord, bool) {
	var out TrackingRecord
	ok := c.withEntry(id, func(rec *TrackingRecord) {
		out = copyRecord(rec)
	})
	return out, ok
}

// Remove evicts the record for id. The cache never evicts on its own.
func (c *Cache) Remove(id Identity) bool {
	c.mu.Lock()
	e, ok := c.entries[id]
	if ok {
		delete(c.entries, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()

	logging.Debug("Cache", "Removed %s", id)
	return true
}

// AllTracked returns a sorted point-in-time copy of the tracked identities.
func (c *Cache) AllTracked() []Identity {
	c.mu.RLock()
	ids := make([]Identity, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// InNamespace returns the tracked identities in namespace.
func (c *Cache) InNamespace(namespace string) []Identity {
	var out []Identity
	for _, id := range c.AllTracked() {
		if id.Namespace == namespace {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of tracked identities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Inconsistencies returns how many illegal transitions were rejected.
func (c *Cache) Inconsistencies() int64 {
	return c.inconsistencies.Load()
}

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time {
	return c.clock.Now()
}

func copyRecord(rec *TrackingRecord) TrackingRecord {
	out := *rec
	if rec.Expected != nil {
		exp := *rec.Expected
		out.Expected = &exp
	}
	return out
}
