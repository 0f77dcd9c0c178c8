package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	kubefake "k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"flinktrack/internal/config"
	"flinktrack/internal/events"
	"flinktrack/internal/flink"
	"flinktrack/internal/tracker"
	"flinktrack/internal/tracking"
)

var testJob = tracking.NewIdentity("prod", "job-7", 42)

func jobObjects() (*appsv1.Deployment, *corev1.Pod) {
	deploy := &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: testJob.Name, Namespace: testJob.Namespace, UID: "deploy-uid"},
	}
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      testJob.Name + "-jobmanager-0",
			Namespace: testJob.Namespace,
			Labels: map[string]string{
				flink.LabelType:      flink.TypeNativeK8s,
				flink.LabelComponent: flink.ComponentJobManager,
				flink.LabelApp:       testJob.Name,
				flink.LabelAppID:     "42",
			},
		},
		Status: corev1.PodStatus{
			Phase:             corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{Ready: true}},
		},
	}
	return deploy, pod
}

func testClients(t *testing.T, objs ...runtime.Object) (*Clients, *kubefake.Clientset) {
	t.Helper()
	clientset := kubefake.NewSimpleClientset(objs...)
	c := fake.NewClientBuilder().WithScheme(NewScheme()).WithRuntimeObjects(objs...).Build()
	return &Clients{Clientset: clientset, Client: c}, clientset
}

func testSettings() *config.Config {
	settings := config.Default()
	settings.Tracker.PollInterval = time.Hour
	settings.Tracker.SweepInterval = time.Hour
	return &settings
}

func TestNewApplication_PreflightFallsBackToPolling(t *testing.T) {
	clients, clientset := testClients(t)
	clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("pods is forbidden")
	})

	settings := testSettings()
	settings.Kubernetes.Namespaces = []string{"prod"}

	a, err := newApplication(&Config{Settings: settings}, appDeps{
		clients:          clients,
		clock:            clockwork.NewFakeClock(),
		preflightTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, a.WatchEnabled())
}

func TestNewApplication_PreflightSucceeds(t *testing.T) {
	clients, _ := testClients(t)
	settings := testSettings()
	settings.Kubernetes.Namespaces = []string{"prod", "staging"}

	a, err := newApplication(&Config{Settings: settings}, appDeps{
		clients:          clients,
		clock:            clockwork.NewFakeClock(),
		preflightTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	assert.True(t, a.WatchEnabled())
}

func TestNewApplication_InvalidSelector(t *testing.T) {
	clients, _ := testClients(t)
	settings := testSettings()
	settings.Kubernetes.LabelSelector = "app in (a"

	_, err := newApplication(&Config{Settings: settings}, appDeps{clients: clients, clock: clockwork.NewFakeClock()})
	assert.Error(t, err)
}

func TestApplication_RunTracksJobAndRecordsEvents(t *testing.T) {
	deploy, pod := jobObjects()
	clients, _ := testClients(t, deploy, pod)

	settings := testSettings()
	settings.Events.RecordKubernetesEvents = true

	a, err := newApplication(&Config{Settings: settings}, appDeps{
		clients:          clients,
		clock:            clockwork.NewRealClock(),
		preflightTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		reports [][]tracker.JobSummary
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx, RunOptions{
			OnStarted: func(tr *tracker.Tracker) error {
				return tr.SetExpectation(testJob, tracking.StateRunning)
			},
			Report: func(summary []tracker.JobSummary) {
				mu.Lock()
				defer mu.Unlock()
				reports = append(reports, summary)
			},
		})
	}()

	require.Eventually(t, func() bool {
		rec, ok := a.Tracker().Cache().Get(testJob)
		return ok && rec.Observed == tracking.StateRunning && rec.Expected == nil
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		var list corev1.EventList
		if err := clients.Client.List(context.Background(), &list, client.InNamespace("prod")); err != nil {
			return false
		}
		for _, ev := range list.Items {
			if ev.Reason == string(events.ReasonExpectationSatisfied) {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reports, 1, "final report on shutdown")
	require.Len(t, reports[0], 1)
	assert.Equal(t, tracking.StateRunning, reports[0][0].Observed)
	assert.False(t, a.Tracker().IsRunning())
}

func TestApplication_OnStartedErrorStopsRun(t *testing.T) {
	clients, _ := testClients(t)
	a, err := newApplication(&Config{Settings: testSettings()}, appDeps{clients: clients, clock: clockwork.NewFakeClock()})
	require.NoError(t, err)

	err = a.Run(context.Background(), RunOptions{
		OnStarted: func(*tracker.Tracker) error { return errors.New("bad job list") },
	})
	assert.EqualError(t, err, "bad job list")
	assert.False(t, a.Tracker().IsRunning())
}
