package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flinktrack/internal/tracking"
)

var busTestID = tracking.NewIdentity("prod", "job-7", 42)

func stateChanged(from, to tracking.JobState) Event {
	return NewStateChanged(tracking.Transition{
		Identity: busTestID,
		Old:      from,
		New:      to,
		At:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, tracking.SourceWatch)
}

func TestBus_DeliversInPublishOrder(t *testing.T) {
	bus := NewBus()

	var got []tracking.JobState
	bus.Subscribe("collector", func(ev Event) error {
		got = append(got, ev.NewState)
		return nil
	})

	bus.Publish(stateChanged(tracking.StateUnknown, tracking.StateStarting))
	bus.Publish(stateChanged(tracking.StateStarting, tracking.StateRunning))
	bus.Publish(stateChanged(tracking.StateRunning, tracking.StateFinished))

	assert.Equal(t, []tracking.JobState{
		tracking.StateStarting, tracking.StateRunning, tracking.StateFinished,
	}, got)
}

func TestBus_SubscriberOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe("first", func(Event) error { order = append(order, "first"); return nil })
	bus.Subscribe("second", func(Event) error { order = append(order, "second"); return nil })

	bus.Publish(stateChanged(tracking.StateUnknown, tracking.StateRunning))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBus_FailingSubscribersAreIsolated(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("erroring", func(Event) error { return errors.New("boom") })
	bus.Subscribe("panicking", func(Event) error { panic("subscriber bug") })

	delivered := 0
	bus.Subscribe("healthy", func(Event) error {
		delivered++
		return nil
	})

	require.NotPanics(t, func() {
		bus.Publish(stateChanged(tracking.StateUnknown, tracking.StateRunning))
	})

	assert.Equal(t, 1, delivered)
	published, failures, _ := bus.Stats()
	assert.Equal(t, int64(1), published)
	assert.Equal(t, int64(2), failures)
}

func TestBus_NoReplayForLateSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(stateChanged(tracking.StateUnknown, tracking.StateStarting))

	var got []Event
	bus.Subscribe("late", func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	bus.Publish(stateChanged(tracking.StateStarting, tracking.StateRunning))

	require.Len(t, got, 1)
	assert.Equal(t, tracking.StateRunning, got[0].NewState)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	sub := bus.Subscribe("counter", func(Event) error {
		calls++
		return nil
	})
	assert.Equal(t, "counter", sub.Name())

	bus.Publish(stateChanged(tracking.StateUnknown, tracking.StateStarting))
	bus.Unsubscribe(sub)
	bus.Unsubscribe(sub)
	bus.Publish(stateChanged(tracking.StateStarting, tracking.StateRunning))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_SubscribeChan(t *testing.T) {
	bus := NewBus()
	ch, sub := bus.SubscribeChan("chan", 1)

	bus.Publish(stateChanged(tracking.StateUnknown, tracking.StateStarting))
	// Buffer is full; this one is dropped instead of blocking the publisher.
	bus.Publish(stateChanged(tracking.StateStarting, tracking.StateRunning))

	ev := <-ch
	assert.Equal(t, tracking.StateStarting, ev.NewState)

	_, _, dropped := bus.Stats()
	assert.Equal(t, int64(1), dropped)

	bus.Unsubscribe(sub)
	_, open := <-ch
	assert.False(t, open, "channel is closed on unsubscribe")
}

func TestBus_ConcurrentPublishAndSubscribe(t *testing.T) {
	bus := NewBus()

	var (
		mu    sync.Mutex
		count int
	)
	bus.Subscribe("counter", func(Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.Publish(stateChanged(tracking.StateUnknown, tracking.StateRunning))
		}()
		go func() {
			defer wg.Done()
			sub := bus.Subscribe("transient", func(Event) error { return nil })
			bus.Unsubscribe(sub)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}

func TestEventConstructors(t *testing.T) {
	setAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := tracking.Expectation{State: tracking.StateCancelled, SetAt: setAt}

	set := NewExpectationSet(busTestID, exp)
	if set.Type != TypeExpectationSet {
		t.Errorf("Type = %s, want %s", set.Type, TypeExpectationSet)
	}
	if set.ID == "" {
		t.Error("expected a generated event ID")
	}
	if set.ExpectationAge() != 0 {
		t.Errorf("ExpectationAge = %s, want 0", set.ExpectationAge())
	}

	timeout := NewExpectationTimeout(busTestID, exp, tracking.StateRunning, setAt.Add(5*time.Minute))
	if timeout.ExpectationAge() != 5*time.Minute {
		t.Errorf("ExpectationAge = %s, want 5m", timeout.ExpectationAge())
	}
	if timeout.ID == set.ID {
		t.Error("event IDs must be unique")
	}
}

func TestGetEventType(t *testing.T) {
	tests := []struct {
		reason Reason
		want   EventType
	}{
		{ReasonJobRunning, EventTypeNormal},
		{ReasonJobCancelled, EventTypeNormal},
		{ReasonJobFailed, EventTypeWarning},
		{ReasonJobLost, EventTypeWarning},
		{ReasonExpectationSatisfied, EventTypeNormal},
		{ReasonExpectationTimeout, EventTypeWarning},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			assert.Equal(t, tt.want, getEventType(tt.reason))
		})
	}
}
