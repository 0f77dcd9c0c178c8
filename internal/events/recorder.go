package events

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"flinktrack/pkg/logging"
	textutil "flinktrack/pkg/strings"
)

const (
	// EventSourceComponent is the source component on every Kubernetes Event
	// written by the recorder.
	EventSourceComponent = "flinktrack"

	// AppIDAnnotation carries the application id on recorded Kubernetes Events.
	AppIDAnnotation = "flinktrack.io/app-id"

	defaultWriteTimeout = 10 * time.Second
)

// KubernetesRecorder writes tracker events as Kubernetes Events against the
// job's jobmanager Deployment, so they show up in kubectl describe.
type KubernetesRecorder struct {
	client       client.Client
	templates    *MessageTemplateEngine
	clock        clockwork.Clock
	writeTimeout time.Duration
}

// NewKubernetesRecorder creates a recorder. A nil clock uses the real clock.
func NewKubernetesRecorder(c client.Client, clock clockwork.Clock) *KubernetesRecorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &KubernetesRecorder{
		client:       c,
		templates:    NewMessageTemplateEngine(),
		clock:        clock,
		writeTimeout: defaultWriteTimeout,
	}
}

// Templates returns the engine used to render messages.
func (r *KubernetesRecorder) Templates() *MessageTemplateEngine {
	return r.templates
}

// Record writes ev as a Kubernetes Event. Events without a reason are skipped.
func (r *KubernetesRecorder) Record(ctx context.Context, ev Event) error {
	reason, ok := reasonFor(ev)
	if !ok {
		return nil
	}

	id := ev.Identity
	message := textutil.EventMessage(r.templates.Render(reason, messageDataFor(ev)))

	// The UID is best effort; a job whose deployment is gone still gets its event.
	var uid types.UID
	deployment := &appsv1.Deployment{}
	err := r.client.Get(ctx, client.ObjectKey{Namespace: id.Namespace, Name: id.Name}, deployment)
	switch {
	case err == nil:
		uid = deployment.UID
	case apierrors.IsNotFound(err):
	default:
		logging.Debug("EventRecorder", "Could not look up deployment %s/%s: %v", id.Namespace, id.Name, err)
	}

	now := metav1.NewTime(r.clock.Now())
	event := &corev1.Event{
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: id.Name + "-",
			Namespace:    id.Namespace,
			Annotations: map[string]string{
				AppIDAnnotation: fmt.Sprintf("%d", id.AppID),
			},
		},
		InvolvedObject: corev1.ObjectReference{
			APIVersion: appsv1.SchemeGroupVersion.String(),
			Kind:       "Deployment",
			Name:       id.Name,
			Namespace:  id.Namespace,
			UID:        uid,
		},
		Reason:         string(reason),
		Message:        message,
		Type:           string(getEventType(reason)),
		Source:         corev1.EventSource{Component: EventSourceComponent},
		FirstTimestamp: now,
		LastTimestamp:  now,
		Count:          1,
	}

	if err := r.client.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create Kubernetes Event for %s: %w", id, err)
	}

	logging.Debug("EventRecorder", "Recorded %s for %s: %s", reason, id, message)
	return nil
}

// Run subscribes to bus and records events until ctx is cancelled.
func (r *KubernetesRecorder) Run(ctx context.Context, bus *Bus, buffer int) {
	<-r.Start(ctx, bus, buffer)
}

// Start subscribes to bus before returning and records events on a
// background goroutine until ctx is cancelled. When the recorder falls
// behind by more than buffer events, the bus drops the overflow. The
// returned channel is closed once the recorder has stopped.
func (r *KubernetesRecorder) Start(ctx context.Context, bus *Bus, buffer int) <-chan struct{} {
	ch, sub := bus.SubscribeChan("kubernetes-recorder", buffer)
	done := make(chan struct{})

	logging.Info("EventRecorder", "Recording tracker events as Kubernetes Events")
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				writeCtx, cancel := context.WithTimeout(ctx, r.writeTimeout)
				if err := r.Record(writeCtx, ev); err != nil {
					logging.Warn("EventRecorder", "Failed to record %s: %v", ev.Type, err)
				}
				cancel()
			}
		}
	}()
	return done
}
