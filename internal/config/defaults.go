package config

import (
	"time"

	"flinktrack/internal/tracker"
)

const (
	// DefaultResyncPeriod is how often informers replay their cache.
	DefaultResyncPeriod = 10 * time.Minute

	// DefaultEventBuffer is the Kubernetes event recorder queue length.
	DefaultEventBuffer = 256
)

// Default returns the default configuration for flinktrack.
func Default() Config {
	t := tracker.DefaultConfig()
	return Config{
		Tracker: TrackerConfig{
			PollInterval:       t.Poll.Interval,
			StaleAfter:         t.Poll.StaleAfter,
			PollConcurrency:    t.Poll.Concurrency,
			PollTimeout:        t.Poll.QueryTimeout,
			PollQPS:            t.Poll.QPS,
			PollBurst:          t.Poll.Burst,
			ExpectationTimeout: t.ExpectationTimeout,
			SweepInterval:      t.SweepInterval,
			LostGracePeriod:    t.Poll.LostGracePeriod,
			WatchEnabled:       t.WatchEnabled,
			ResyncPeriod:       DefaultResyncPeriod,
			WatchRetryInitial:  t.WatchRetryInitial,
			WatchRetryMax:      t.WatchRetryMax,
		},
		Events: EventsConfig{
			RecordKubernetesEvents: false, // Requires create permission on events
			Buffer:                 DefaultEventBuffer,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
