package tracker

import (
	"time"

	"flinktrack/internal/poll"
)

// Config holds the tracker's timing and policy settings.
type Config struct {
	Poll poll.Config

	// ExpectationTimeout is how long an expectation may stay pending before
	// it times out.
	ExpectationTimeout time.Duration

	// SweepInterval is how often pending expectations are checked for timeout.
	SweepInterval time.Duration

	// WatchEnabled turns on live watch subscriptions. When off, jobs are
	// observed by polling only.
	WatchEnabled bool

	// WatchRetryInitial and WatchRetryMax bound the exponential backoff used
	// to re-establish a failed namespace watch.
	WatchRetryInitial time.Duration
	WatchRetryMax     time.Duration
}

// DefaultConfig returns the tracker defaults.
func DefaultConfig() Config {
	return Config{
		Poll:               poll.DefaultConfig(),
		ExpectationTimeout: 5 * time.Minute,
		SweepInterval:      5 * time.Second,
		WatchEnabled:       true,
		WatchRetryInitial:  time.Second,
		WatchRetryMax:      5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ExpectationTimeout <= 0 {
		c.ExpectationTimeout = defaults.ExpectationTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaults.SweepInterval
	}
	if c.WatchRetryInitial <= 0 {
		c.WatchRetryInitial = defaults.WatchRetryInitial
	}
	if c.WatchRetryMax <= 0 {
		c.WatchRetryMax = defaults.WatchRetryMax
	}
	return c
}

// calculateBackoff computes exponential backoff for the given attempt,
// starting at 1.
func (c Config) calculateBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// Exponential backoff: initial * 2^(attempt-1), guarded against overflow
	if attempt > 30 {
		return c.WatchRetryMax
	}
	backoff := c.WatchRetryInitial * time.Duration(1<<uint(attempt-1))

	// Cap at max backoff
	if backoff > c.WatchRetryMax || backoff <= 0 {
		backoff = c.WatchRetryMax
	}

	return backoff
}
