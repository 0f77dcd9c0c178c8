// Package app provides application bootstrap and lifecycle management for flinktrack.
//
// # Bootstrap
//
// NewApplication performs the startup sequence:
//
//  1. Logging is initialised for CLI output, then reconfigured from the
//     logging section of the config file (the --debug flag wins).
//  2. The config file is loaded (see package config).
//  3. Kubernetes clients are created: a clientset for informers and a
//     controller-runtime client for status queries and event writes. The
//     cluster is found via controller-runtime's standard detection unless
//     kubernetes.kubeconfig or kubernetes.context is set.
//  4. Watch access is verified for each configured namespace by subscribing
//     once with a handler that ignores everything. If any namespace cannot
//     be watched, the tracker runs in poll-only mode.
//  5. The tracker is created with the informer subscriber and the
//     Kubernetes status querier, plus the event recorder when
//     events.recordKubernetesEvents is set.
//
// # Running
//
// Run starts the tracker, calls RunOptions.OnStarted, reports the job
// summary periodically and blocks until the context is cancelled or SIGINT
// or SIGTERM arrives. Shutdown stops every watch subscription and waits for
// in-flight polls.
package app
