// Package poll is the fallback path for job state acquisition.
//
// The Poller queries jobs that have no live watch, or whose watch data has
// gone stale, with bounded concurrency, a per-query timeout and a shared
// rate limit. A query that finds the job's cluster gone marks the record
// missing; the job becomes CANCELLED if it was being cancelled, and LOST once
// it has been missing for the grace period.
package poll
