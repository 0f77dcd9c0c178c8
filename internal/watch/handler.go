package watch

import corev1 "k8s.io/api/core/v1"

// Handler receives jobmanager pod notifications for one namespace.
//
// Callbacks run on client-go goroutines and must not block on I/O.
type Handler interface {
	OnAdded(pods []*corev1.Pod)
	OnModified(pods []*corev1.Pod)
	OnDeleted(pods []*corev1.Pod)

	// OnError reports that the subscription broke. The subscription does not
	// recover on its own; the owner decides whether to re-subscribe.
	OnError(err error)
}

// NopHandler ignores every notification. It is used when watching is
// disabled so that jobs are observed by polling alone.
type NopHandler struct{}

func (NopHandler) OnAdded([]*corev1.Pod)    {}
func (NopHandler) OnModified([]*corev1.Pod) {}
func (NopHandler) OnDeleted([]*corev1.Pod)  {}
func (NopHandler) OnError(error)            {}

var _ Handler = NopHandler{}
