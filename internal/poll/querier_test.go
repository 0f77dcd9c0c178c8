package poll

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/client/interceptor"

	"flinktrack/internal/flink"
	"flinktrack/internal/tracking"
)

func newScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, corev1.AddToScheme(scheme))
	require.NoError(t, appsv1.AddToScheme(scheme))
	return scheme
}

func jobManagerDeployment(name string) *appsv1.Deployment {
	return &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "prod"}}
}

func jobManagerPod(cluster string, phase corev1.PodPhase, ready bool) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      cluster + "-jm",
			Namespace: "prod",
			Labels: map[string]string{
				flink.LabelType:      flink.TypeNativeK8s,
				flink.LabelComponent: flink.ComponentJobManager,
				flink.LabelApp:       cluster,
			},
		},
		Status: corev1.PodStatus{
			Phase:             phase,
			ContainerStatuses: []corev1.ContainerStatus{{Ready: ready}},
		},
	}
}

func evictedPod(cluster string) *corev1.Pod {
	pod := jobManagerPod(cluster, corev1.PodFailed, false)
	pod.Name = cluster + "-jm-evicted"
	pod.Status.Reason = "Evicted"
	return pod
}

func terminatingDeployment(name string) *appsv1.Deployment {
	d := jobManagerDeployment(name)
	now := metav1.Now()
	d.DeletionTimestamp = &now
	d.Finalizers = []string{"foregroundDeletion"}
	return d
}

func TestKubernetesQuerier_QueryStatus(t *testing.T) {
	tests := []struct {
		name    string
		objects []client.Object
		want    tracking.JobState
	}{
		{
			name:    "running jobmanager",
			objects: []client.Object{jobManagerDeployment("job-7"), jobManagerPod("job-7", corev1.PodRunning, true)},
			want:    tracking.StateRunning,
		},
		{
			name:    "deployment without pods",
			objects: []client.Object{jobManagerDeployment("job-7")},
			want:    tracking.StateStarting,
		},
		{
			name:    "failed jobmanager",
			objects: []client.Object{jobManagerDeployment("job-7"), jobManagerPod("job-7", corev1.PodFailed, false)},
			want:    tracking.StateFailed,
		},
		{
			name: "evicted jobmanager with its replacement",
			objects: []client.Object{
				jobManagerDeployment("job-7"),
				evictedPod("job-7"),
				jobManagerPod("job-7", corev1.PodRunning, true),
			},
			want: tracking.StateRunning,
		},
		{
			name: "deployment being deleted",
			objects: []client.Object{
				terminatingDeployment("job-7"),
				jobManagerPod("job-7", corev1.PodRunning, true),
			},
			want: tracking.StateUnknown,
		},
		{
			name:    "pods of another cluster are ignored",
			objects: []client.Object{jobManagerDeployment("job-7"), jobManagerPod("job-8", corev1.PodFailed, false)},
			want:    tracking.StateStarting,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := fake.NewClientBuilder().WithScheme(newScheme(t)).WithObjects(tt.objects...).Build()
			q := NewKubernetesQuerier(c)

			got, err := q.QueryStatus(context.Background(), "prod", "job-7")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKubernetesQuerier_NotFound(t *testing.T) {
	c := fake.NewClientBuilder().WithScheme(newScheme(t)).Build()
	q := NewKubernetesQuerier(c)

	_, err := q.QueryStatus(context.Background(), "prod", "job-7")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestKubernetesQuerier_TransientError(t *testing.T) {
	c := fake.NewClientBuilder().
		WithScheme(newScheme(t)).
		WithInterceptorFuncs(interceptor.Funcs{
			Get: func(ctx context.Context, c client.WithWatch, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
				return errors.New("etcdserver: request timed out")
			},
		}).
		Build()
	q := NewKubernetesQuerier(c)

	_, err := q.QueryStatus(context.Background(), "prod", "job-7")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}
