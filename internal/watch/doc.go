// Package watch feeds live jobmanager pod changes into the tracking cache.
//
// A Subscriber opens one watch per namespace and forwards pod notifications
// to a Handler. The Adapter is the Handler that matters: it maps pods to
// tracked identities and job states, maintains watch coverage on each
// record, and reports subscription failures to its owner. Retrying a broken
// subscription is the owner's job.
package watch
