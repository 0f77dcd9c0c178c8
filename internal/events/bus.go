package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"flinktrack/pkg/logging"
)

// Handler consumes one event. A returned error is logged and counted; it
// never reaches the publisher or other subscribers.
type Handler func(Event) error

// Subscription identifies a registered subscriber.
type Subscription struct {
	id   uint64
	name string
}

// Name returns the subscriber name given at registration.
func (s Subscription) Name() string {
	return s.name
}

type subscriber struct {
	Subscription
	handler  Handler
	onRemove func()
}

// Bus is an in-process publish/subscribe channel for tracker events.
//
// Publish delivers synchronously on the caller's goroutine to the
// subscribers registered at that moment, in registration order. There is no
// replay: late subscribers only see later events.
type Bus struct {
	mu          sync.RWMutex
	subscribers []subscriber
	nextID      uint64

	published atomic.Int64
	failures  atomic.Int64
	dropped   atomic.Int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler under name.
func (b *Bus) Subscribe(name string, handler Handler) Subscription {
	return b.subscribe(name, handler, nil)
}

func (b *Bus) subscribe(name string, handler Handler, onRemove func()) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := Subscription{id: b.nextID, name: name}
	b.subscribers = append(b.subscribers, subscriber{Subscription: sub, handler: handler, onRemove: onRemove})

	logging.Debug("EventBus", "Subscribed %s", name)
	return sub
}

// SubscribeChan registers a channel subscriber. Sends never block the
// publisher; events that do not fit in the buffer are dropped and logged.
// The channel is closed on Unsubscribe.
func (b *Bus) SubscribeChan(name string, buffer int) (<-chan Event, Subscription) {
	ch := make(chan Event, buffer)
	var (
		chMu   sync.Mutex
		closed bool
	)
	handler := func(ev Event) error {
		chMu.Lock()
		defer chMu.Unlock()
		if closed {
			return nil
		}
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
			logging.Debug("EventBus", "Subscriber %s blocked, dropping %s for %s", name, ev.Type, ev.Identity)
		}
		return nil
	}
	onRemove := func() {
		chMu.Lock()
		defer chMu.Unlock()
		if !closed {
			closed = true
			close(ch)
		}
	}
	return ch, b.subscribe(name, handler, onRemove)
}

// Unsubscribe removes a subscriber. It is safe to call more than once.
func (b *Bus) Unsubscribe(sub Subscription) {
	var (
		removed subscriber
		found   bool
	)
	b.mu.Lock()
	for i, s := range b.subscribers {
		if s.id == sub.id {
			removed, found = s, true
			b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	if !found {
		return
	}
	if removed.onRemove != nil {
		removed.onRemove()
	}
	logging.Debug("EventBus", "Unsubscribed %s", sub.name)
}

// Publish delivers ev to every current subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	b.published.Add(1)
	for _, s := range subs {
		if err := deliver(s, ev); err != nil {
			b.failures.Add(1)
			logging.Error("EventBus", err, "Subscriber %s failed to handle %s for %s", s.name, ev.Type, ev.Identity)
		}
	}
}

func deliver(s subscriber, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return s.handler(ev)
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Stats returns published, failed and dropped delivery counters.
func (b *Bus) Stats() (published, failures, dropped int64) {
	return b.published.Load(), b.failures.Load(), b.dropped.Load()
}
