package watch

import (
	"sync"

	corev1 "k8s.io/api/core/v1"

	"flinktrack/internal/flink"
	"flinktrack/internal/tracking"
	"flinktrack/pkg/logging"
)

// ErrorHook is called after a namespace subscription failed and its
// identities were marked as no longer watch-covered.
type ErrorHook func(namespace string, err error)

// Adapter turns pod notifications of one namespace into observations.
//
// It never creates tracking records: pods of untracked jobs are ignored.
// Observations go through the Observer so that every applied transition is
// published.
//
// A job's state is derived from all jobmanager pods of its cluster, the same
// way the poller derives it, so a replaced pod does not decide the job's
// fate on its own. The adapter keeps the pods it has been notified about;
// an adapter serves a single subscription.
type Adapter struct {
	namespace string
	cache     *tracking.Cache
	observer  tracking.Observer
	onError   ErrorHook

	mu sync.Mutex
	// clusters maps a cluster name to its jobmanager pods by pod name
	clusters map[string]map[string]corev1.Pod
}

// NewAdapter creates an adapter for namespace. onError may be nil.
func NewAdapter(namespace string, cache *tracking.Cache, observer tracking.Observer, onError ErrorHook) *Adapter {
	return &Adapter{
		namespace: namespace,
		cache:     cache,
		observer:  observer,
		onError:   onError,
		clusters:  make(map[string]map[string]corev1.Pod),
	}
}

// Namespace returns the namespace the adapter serves.
func (a *Adapter) Namespace() string {
	return a.namespace
}

func (a *Adapter) OnAdded(pods []*corev1.Pod) {
	a.apply(pods)
}

func (a *Adapter) OnModified(pods []*corev1.Pod) {
	a.apply(pods)
}

// OnDeleted handles jobmanager pods that are gone. While the cluster still
// has other jobmanager pods the job stays watch-covered. Once the last one is
// gone, watch coverage is dropped and the absence recorded; the observed
// state is kept and the poller decides whether the job is gone.
func (a *Adapter) OnDeleted(pods []*corev1.Pod) {
	now := a.cache.Now()
	for _, pod := range pods {
		id, ok := a.identity(pod)
		if !ok {
			continue
		}
		state, remaining := a.forget(id, pod)
		if remaining > 0 {
			a.observe(id, state)
			continue
		}
		if !a.cache.SetWatchActive(id, false) {
			continue
		}
		a.cache.MarkMissing(id, now)
		logging.Debug("WatchAdapter", "Last jobmanager pod %s of %s deleted", pod.Name, id)
	}
}

// OnError marks every tracked job in the namespace as uncovered so the
// poller picks them up, then hands the error to the hook.
func (a *Adapter) OnError(err error) {
	a.mu.Lock()
	a.clusters = make(map[string]map[string]corev1.Pod)
	a.mu.Unlock()

	ids := a.cache.InNamespace(a.namespace)
	for _, id := range ids {
		a.cache.SetWatchActive(id, false)
	}
	logging.Warn("WatchAdapter", "Watch on namespace %s failed, %d jobs fall back to polling: %v", a.namespace, len(ids), err)

	if a.onError != nil {
		a.onError(a.namespace, err)
	}
}

func (a *Adapter) apply(pods []*corev1.Pod) {
	for _, pod := range pods {
		id, ok := a.identity(pod)
		if !ok {
			continue
		}
		a.observe(id, a.remember(id, pod))
	}
}

// observe marks id watch-covered and applies state unless it is UNKNOWN.
func (a *Adapter) observe(id tracking.Identity, state tracking.JobState) {
	if !a.cache.SetWatchActive(id, true) {
		return
	}
	if state == tracking.StateUnknown {
		return
	}
	a.cache.ClearMissing(id)
	a.observer.Observe(id, state, tracking.SourceWatch)
}

// remember stores pod and returns the state of its cluster.
func (a *Adapter) remember(id tracking.Identity, pod *corev1.Pod) tracking.JobState {
	a.mu.Lock()
	defer a.mu.Unlock()
	cluster := a.clusters[id.Name]
	if cluster == nil {
		cluster = make(map[string]corev1.Pod)
		a.clusters[id.Name] = cluster
	}
	cluster[pod.Name] = *pod
	return aggregate(cluster)
}

// forget drops pod and returns the state of its cluster along with the
// number of jobmanager pods left.
func (a *Adapter) forget(id tracking.Identity, pod *corev1.Pod) (tracking.JobState, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cluster := a.clusters[id.Name]
	delete(cluster, pod.Name)
	if len(cluster) == 0 {
		delete(a.clusters, id.Name)
		return tracking.StateUnknown, 0
	}
	return aggregate(cluster), len(cluster)
}

func aggregate(cluster map[string]corev1.Pod) tracking.JobState {
	pods := make([]corev1.Pod, 0, len(cluster))
	for _, pod := range cluster {
		pods = append(pods, pod)
	}
	return flink.AggregateJobState(pods)
}

func (a *Adapter) identity(pod *corev1.Pod) (tracking.Identity, bool) {
	id, ok := flink.IdentityFromPod(pod)
	if !ok || id.Namespace != a.namespace {
		return tracking.Identity{}, false
	}
	return id, true
}

var _ Handler = (*Adapter)(nil)
