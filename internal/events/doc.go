// Package events carries tracker notifications from the reconciler to
// interested consumers.
//
// The Bus is an in-process publish/subscribe channel. Publishing is
// synchronous and ordered per publisher; a failing or panicking subscriber is
// logged and counted but never affects the publisher or other subscribers.
// There is no replay: a subscriber only receives events published after it
// subscribed.
//
// Four event types exist:
//
//   - StateChanged: an observed transition was applied to the cache
//   - ExpectationSet: a user or action recorded an expected state
//   - ExpectationSatisfied: an observed transition reached the expectation
//   - ExpectationTimeout: the expectation expired unmet
//
// KubernetesRecorder is an optional subscriber that writes each event as a
// corev1.Event on the job's jobmanager Deployment:
//
//	recorder := events.NewKubernetesRecorder(k8sClient, nil)
//	go recorder.Run(ctx, bus, 256)
package events
