package tracker

import (
	"context"
	"sort"

	"flinktrack/internal/watch"
	"flinktrack/pkg/logging"
)

// namespaceWatch is the subscription state of one namespace. All fields are
// guarded by Tracker.mu.
type namespaceWatch struct {
	namespace string
	sub       watch.Subscription
	attempt   int
	retrying  bool
}

// ensureWatch subscribes to namespace unless a subscription exists or is
// being established. Subscribing happens in the background.
func (t *Tracker) ensureWatch(namespace string) {
	if t.subscriber == nil {
		return
	}

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	if _, exists := t.watches[namespace]; exists {
		t.mu.Unlock()
		return
	}
	w := &namespaceWatch{namespace: namespace}
	t.watches[namespace] = w
	ctx := t.ctx
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		t.subscribe(ctx, w)
	}()
}

func (t *Tracker) subscribe(ctx context.Context, w *namespaceWatch) {
	adapter := watch.NewAdapter(w.namespace, t.cache, t, t.onWatchError)
	sub, err := t.subscriber.Subscribe(ctx, w.namespace, adapter)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.metrics.RecordWatchError(w.namespace)
		logging.Warn("Tracker", "Failed to watch namespace %s, jobs are polled meanwhile: %v", w.namespace, err)
		t.retryWatch(w)
		return
	}

	t.mu.Lock()
	if !t.running || t.watches[w.namespace] != w {
		// Released or stopped while subscribing.
		t.mu.Unlock()
		sub.Stop()
		return
	}
	w.sub = sub
	w.attempt = 0
	t.mu.Unlock()
}

// onWatchError is the adapter's error hook. It runs on a client-go
// goroutine, so the failed subscription is torn down in the background.
func (t *Tracker) onWatchError(namespace string, _ error) {
	t.metrics.RecordWatchError(namespace)

	t.mu.Lock()
	w := t.watches[namespace]
	t.mu.Unlock()

	if w != nil {
		t.retryWatch(w)
	}
}

// retryWatch stops w's current subscription and re-subscribes after an
// exponential backoff, as long as the namespace still has tracked jobs.
func (t *Tracker) retryWatch(w *namespaceWatch) {
	t.mu.Lock()
	if !t.running || t.watches[w.namespace] != w || w.retrying {
		t.mu.Unlock()
		return
	}
	w.retrying = true
	stale := w.sub
	w.sub = nil
	w.attempt++
	attempt := w.attempt
	backoff := t.cfg.calculateBackoff(attempt)
	ctx := t.ctx
	t.wg.Add(1)
	t.mu.Unlock()

	logging.Info("Tracker", "Re-subscribing to namespace %s in %s (attempt %d)", w.namespace, backoff, attempt)

	go func() {
		defer t.wg.Done()

		if stale != nil {
			stale.Stop()
			t.markUnwatched(w.namespace)
		}

		select {
		case <-ctx.Done():
			return
		case <-t.clock.After(backoff):
		}

		t.mu.Lock()
		if !t.running || t.watches[w.namespace] != w {
			t.mu.Unlock()
			return
		}
		if len(t.cache.InNamespace(w.namespace)) == 0 {
			delete(t.watches, w.namespace)
			t.mu.Unlock()
			logging.Debug("Tracker", "Namespace %s has no tracked jobs left, not re-subscribing", w.namespace)
			return
		}
		w.retrying = false
		t.mu.Unlock()

		t.metrics.RecordWatchRestart()
		t.subscribe(ctx, w)
	}()
}

// releaseWatch tears down the namespace subscription if no tracked job
// depends on it anymore.
func (t *Tracker) releaseWatch(namespace string) {
	t.mu.Lock()
	w, exists := t.watches[namespace]
	if !exists || len(t.cache.InNamespace(namespace)) > 0 {
		t.mu.Unlock()
		return
	}
	delete(t.watches, namespace)
	sub := w.sub
	w.sub = nil
	if sub == nil {
		t.mu.Unlock()
		return
	}
	// Stopping waits for informer goroutines; never do that on the caller's
	// goroutine, which may itself be one of them.
	t.wg.Add(1)
	t.mu.Unlock()

	logging.Info("Tracker", "Releasing watch on namespace %s", namespace)
	go func() {
		defer t.wg.Done()
		sub.Stop()
	}()
}

func (t *Tracker) markUnwatched(namespace string) {
	for _, id := range t.cache.InNamespace(namespace) {
		t.cache.SetWatchActive(id, false)
	}
}

// WatchedNamespaces returns the namespaces with a live subscription.
func (t *Tracker) WatchedNamespaces() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.watches))
	for ns, w := range t.watches {
		if w.sub != nil {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}
