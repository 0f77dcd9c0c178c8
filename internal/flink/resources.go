// Package flink knows how Flink's native Kubernetes integration lays out a
// job cluster and how to read a job's state from it.
//
// A native-Kubernetes session or application cluster runs one jobmanager
// Deployment named after the cluster-id. Its pods carry the labels
// type=flink-native-kubernetes, component=jobmanager and app=<cluster-id>.
// The submitting console adds LabelAppID so pods can be matched back to the
// application they belong to.
package flink

import (
	"strconv"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"

	"flinktrack/internal/tracking"
)

const (
	LabelType           = "type"
	LabelComponent      = "component"
	LabelApp            = "app"
	LabelAppID          = "flinktrack.io/app-id"
	TypeNativeK8s       = "flink-native-kubernetes"
	ComponentJobManager = "jobmanager"
)

// JobManagerSelector selects every Flink jobmanager pod in a namespace.
func JobManagerSelector() labels.Selector {
	return labels.SelectorFromSet(labels.Set{
		LabelType:      TypeNativeK8s,
		LabelComponent: ComponentJobManager,
	})
}

// ClusterSelector selects the jobmanager pods of one Flink cluster.
func ClusterSelector(clusterID string) labels.Selector {
	return labels.SelectorFromSet(labels.Set{
		LabelType:      TypeNativeK8s,
		LabelComponent: ComponentJobManager,
		LabelApp:       clusterID,
	})
}

// IdentityFromPod derives the tracking identity of a jobmanager pod. It
// returns false for pods that are not Flink jobmanagers or lack a valid
// application id.
func IdentityFromPod(pod *corev1.Pod) (tracking.Identity, bool) {
	if pod == nil {
		return tracking.Identity{}, false
	}
	podLabels := pod.GetLabels()
	if podLabels[LabelType] != TypeNativeK8s || podLabels[LabelComponent] != ComponentJobManager {
		return tracking.Identity{}, false
	}
	clusterID := podLabels[LabelApp]
	if clusterID == "" {
		return tracking.Identity{}, false
	}
	appID, err := strconv.ParseInt(podLabels[LabelAppID], 10, 64)
	if err != nil || appID <= 0 {
		return tracking.Identity{}, false
	}
	return tracking.NewIdentity(pod.Namespace, clusterID, appID), true
}

// PodJobState maps a jobmanager pod onto a job state. UNKNOWN means the pod
// says nothing reliable and should not be applied.
//
// A terminating pod is UNKNOWN: Kubernetes marks every graceful delete the
// same way, whether the job was cancelled, finished or is failing over. Pods
// that failed because the node evicted or lost them are UNKNOWN as well,
// since the Deployment replaces them.
func PodJobState(pod *corev1.Pod) tracking.JobState {
	if pod == nil || pod.DeletionTimestamp != nil {
		return tracking.StateUnknown
	}

	switch pod.Status.Phase {
	case corev1.PodPending:
		return tracking.StateStarting
	case corev1.PodRunning:
		if podReady(pod) {
			return tracking.StateRunning
		}
		return tracking.StateStarting
	case corev1.PodSucceeded:
		return tracking.StateFinished
	case corev1.PodFailed:
		if replacedPodReasons[pod.Status.Reason] {
			return tracking.StateUnknown
		}
		return tracking.StateFailed
	default:
		return tracking.StateUnknown
	}
}

// replacedPodReasons are pod status reasons set by the kubelet or node
// lifecycle controller, not by the jobmanager process.
var replacedPodReasons = map[string]bool{
	"Evicted":                  true,
	"NodeLost":                 true,
	"NodeAffinity":             true,
	"Shutdown":                 true,
	"Terminated":               true,
	"UnexpectedAdmissionError": true,
}

func podReady(pod *corev1.Pod) bool {
	if len(pod.Status.ContainerStatuses) == 0 {
		return false
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if !cs.Ready {
			return false
		}
	}
	return true
}

// AggregateJobState combines the states of a cluster's jobmanager pods.
//
// During failover or rollout a cluster briefly has more than one jobmanager
// pod; any healthy pod wins over a failing one. Pods in an unknown phase are
// ignored. The result is UNKNOWN when no pod says anything.
func AggregateJobState(pods []corev1.Pod) tracking.JobState {
	seen := make(map[tracking.JobState]int)
	known := 0
	for i := range pods {
		state := PodJobState(&pods[i])
		if state == tracking.StateUnknown {
			continue
		}
		seen[state]++
		known++
	}

	switch {
	case known == 0:
		return tracking.StateUnknown
	case seen[tracking.StateRunning] > 0:
		return tracking.StateRunning
	case seen[tracking.StateStarting] > 0:
		return tracking.StateStarting
	case seen[tracking.StateFinished] == known:
		return tracking.StateFinished
	default:
		return tracking.StateFailed
	}
}
