package poll

import (
	"context"
	"errors"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"flinktrack/internal/flink"
	"flinktrack/internal/tracking"
)

// ErrNotFound reports that a job's cluster resources no longer exist. It is
// distinct from transient query failures.
var ErrNotFound = errors.New("flink cluster not found")

// IsNotFound reports whether err means the job's resources are gone.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusQuerier asks the cluster for a job's current state. Implementations
// must honor ctx cancellation.
type StatusQuerier interface {
	QueryStatus(ctx context.Context, namespace, name string) (tracking.JobState, error)
}

// KubernetesQuerier reads job state from the jobmanager Deployment and pods
// of a Flink native-Kubernetes cluster.
type KubernetesQuerier struct {
	client client.Client
}

// NewKubernetesQuerier creates a querier on top of a controller-runtime client.
func NewKubernetesQuerier(c client.Client) *KubernetesQuerier {
	return &KubernetesQuerier{client: c}
}

// QueryStatus returns the state of the cluster named name in namespace.
func (q *KubernetesQuerier) QueryStatus(ctx context.Context, namespace, name string) (tracking.JobState, error) {
	deployment := &appsv1.Deployment{}
	if err := q.client.Get(ctx, client.ObjectKey{Namespace: namespace, Name: name}, deployment); err != nil {
		if apierrors.IsNotFound(err) {
			return tracking.StateUnknown, fmt.Errorf("deployment %s/%s: %w", namespace, name, ErrNotFound)
		}
		return tracking.StateUnknown, fmt.Errorf("failed to get deployment %s/%s: %w", namespace, name, err)
	}
	// Being deleted: neither cancelled nor finished can be told from that.
	if deployment.DeletionTimestamp != nil {
		return tracking.StateUnknown, nil
	}

	pods := &corev1.PodList{}
	if err := q.client.List(ctx, pods,
		client.InNamespace(namespace),
		client.MatchingLabelsSelector{Selector: flink.ClusterSelector(name)},
	); err != nil {
		return tracking.StateUnknown, fmt.Errorf("failed to list jobmanager pods of %s/%s: %w", namespace, name, err)
	}

	// The deployment exists but has not scheduled a jobmanager yet.
	if len(pods.Items) == 0 {
		return tracking.StateStarting, nil
	}
	return flink.AggregateJobState(pods.Items), nil
}

var _ StatusQuerier = (*KubernetesQuerier)(nil)
