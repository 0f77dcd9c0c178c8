package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	toolscache "k8s.io/client-go/tools/cache"

	"flinktrack/internal/flink"
	"flinktrack/pkg/logging"
)

// Subscription is a live namespace watch.
type Subscription interface {
	// Stop ends the watch and waits for its goroutines. It is idempotent.
	Stop()
}

// Subscriber opens namespace watches.
type Subscriber interface {
	Subscribe(ctx context.Context, namespace string, handler Handler) (Subscription, error)
}

// InformerSubscriber watches jobmanager pods with a client-go shared informer
// per namespace.
type InformerSubscriber struct {
	clientset    kubernetes.Interface
	resyncPeriod time.Duration
	selector     labels.Selector
	syncTimeout  time.Duration
}

// NewInformerSubscriber creates a subscriber. A nil selector watches every
// Flink jobmanager pod.
func NewInformerSubscriber(clientset kubernetes.Interface, resyncPeriod time.Duration, selector labels.Selector) *InformerSubscriber {
	if selector == nil {
		selector = flink.JobManagerSelector()
	}
	return &InformerSubscriber{
		clientset:    clientset,
		resyncPeriod: resyncPeriod,
		selector:     selector,
		syncTimeout:  30 * time.Second,
	}
}

// Subscribe starts an informer for namespace and blocks until its cache has
// synced. The initial list is delivered to handler as additions.
func (s *InformerSubscriber) Subscribe(ctx context.Context, namespace string, handler Handler) (Subscription, error) {
	if namespace == "" {
		return nil, fmt.Errorf("watching all namespaces is not supported")
	}

	informerCtx, cancel := context.WithCancel(context.Background())
	selector := s.selector.String()
	factory := informers.NewSharedInformerFactoryWithOptions(s.clientset, s.resyncPeriod,
		informers.WithNamespace(namespace),
		informers.WithTweakListOptions(func(opts *metav1.ListOptions) {
			opts.LabelSelector = selector
		}),
	)
	informer := factory.Core().V1().Pods().Informer()

	sub := &informerSubscription{namespace: namespace, cancel: cancel, factory: factory}

	// Reflector errors other than a normally closed watch end the
	// subscription from the handler's point of view.
	if err := informer.SetWatchErrorHandler(func(_ *toolscache.Reflector, err error) {
		if errors.Is(err, io.EOF) || sub.stopped() {
			return
		}
		handler.OnError(fmt.Errorf("watch pods in %s: %w", namespace, err))
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to set watch error handler: %w", err)
	}

	if _, err := informer.AddEventHandler(toolscache.ResourceEventHandlerFuncs{
		AddFunc: func(obj interface{}) {
			if pod, ok := obj.(*corev1.Pod); ok {
				handler.OnAdded([]*corev1.Pod{pod})
			}
		},
		UpdateFunc: func(_, newObj interface{}) {
			if pod, ok := newObj.(*corev1.Pod); ok {
				handler.OnModified([]*corev1.Pod{pod})
			}
		},
		DeleteFunc: func(obj interface{}) {
			if deletedState, ok := obj.(toolscache.DeletedFinalStateUnknown); ok {
				obj = deletedState.Obj
			}
			if pod, ok := obj.(*corev1.Pod); ok {
				handler.OnDeleted([]*corev1.Pod{pod})
			}
		},
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to add event handler: %w", err)
	}

	factory.Start(informerCtx.Done())

	syncCtx, syncCancel := context.WithTimeout(ctx, s.syncTimeout)
	defer syncCancel()
	if !toolscache.WaitForCacheSync(syncCtx.Done(), informer.HasSynced) {
		sub.Stop()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("timed out waiting for pod cache sync in namespace %s", namespace)
	}

	logging.Info("Watch", "Watching Flink jobmanager pods in namespace %s", namespace)
	return sub, nil
}

type informerSubscription struct {
	namespace string
	cancel    context.CancelFunc
	factory   informers.SharedInformerFactory

	once sync.Once
	mu   sync.Mutex
	done bool
}

func (s *informerSubscription) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *informerSubscription) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()

		s.cancel()
		s.factory.Shutdown()
		logging.Debug("Watch", "Stopped watching namespace %s", s.namespace)
	})
}
