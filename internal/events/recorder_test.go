package events

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"flinktrack/internal/tracking"
)

func newRecorderClient(t *testing.T, objs ...client.Object) client.Client {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, appsv1.AddToScheme(scheme))
	return fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build()
}

func listEvents(t *testing.T, c client.Client, namespace string) []corev1.Event {
	t.Helper()
	list := &corev1.EventList{}
	require.NoError(t, c.List(context.Background(), list, client.InNamespace(namespace)))
	return list.Items
}

func TestKubernetesRecorder_RecordStateChange(t *testing.T) {
	deployment := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "job-7", Namespace: "prod", UID: types.UID("deploy-uid")},
	}
	c := newRecorderClient(t, deployment)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	recorder := NewKubernetesRecorder(c, clock)

	err := recorder.Record(context.Background(), NewStateChanged(tracking.Transition{
		Identity: busTestID,
		Old:      tracking.StateRunning,
		New:      tracking.StateFailed,
		At:       clock.Now(),
	}, tracking.SourcePoll))
	require.NoError(t, err)

	items := listEvents(t, c, "prod")
	require.Len(t, items, 1)
	ev := items[0]
	assert.Equal(t, string(ReasonJobFailed), ev.Reason)
	assert.Equal(t, string(EventTypeWarning), ev.Type)
	assert.Equal(t, "Flink job 42 on job-7 failed after RUNNING", ev.Message)
	assert.Equal(t, "Deployment", ev.InvolvedObject.Kind)
	assert.Equal(t, "job-7", ev.InvolvedObject.Name)
	assert.Equal(t, types.UID("deploy-uid"), ev.InvolvedObject.UID)
	assert.Equal(t, EventSourceComponent, ev.Source.Component)
	assert.Equal(t, "42", ev.Annotations[AppIDAnnotation])
}

func TestKubernetesRecorder_RecordWithoutDeployment(t *testing.T) {
	c := newRecorderClient(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	recorder := NewKubernetesRecorder(c, clock)

	exp := tracking.Expectation{State: tracking.StateCancelled, SetAt: clock.Now().Add(-5 * time.Minute)}
	err := recorder.Record(context.Background(), NewExpectationTimeout(busTestID, exp, tracking.StateRunning, clock.Now()))
	require.NoError(t, err)

	items := listEvents(t, c, "prod")
	require.Len(t, items, 1)
	assert.Equal(t, string(ReasonExpectationTimeout), items[0].Reason)
	assert.Equal(t, "Flink job 42 on job-7 did not reach CANCELLED within 5m0s, last observed RUNNING", items[0].Message)
	assert.Empty(t, items[0].InvolvedObject.UID)
}

func TestKubernetesRecorder_RunConsumesBus(t *testing.T) {
	c := newRecorderClient(t)
	recorder := NewKubernetesRecorder(c, nil)
	bus := NewBus()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		recorder.Run(ctx, bus, 16)
		close(done)
	}()

	require.Eventually(t, func() bool { return bus.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	bus.Publish(NewExpectationSet(busTestID, tracking.Expectation{State: tracking.StateRunning, SetAt: time.Now()}))

	require.Eventually(t, func() bool {
		return len(listEvents(t, c, "prod")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, bus.Len(), "recorder unsubscribes on shutdown")
}
