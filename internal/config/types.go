package config

import (
	"time"

	"k8s.io/apimachinery/pkg/labels"

	"flinktrack/internal/poll"
	"flinktrack/internal/tracker"
	"flinktrack/pkg/logging"
)

// Config is the top-level configuration structure for flinktrack.
type Config struct {
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Tracker    TrackerConfig    `yaml:"tracker"`
	Events     EventsConfig     `yaml:"events"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// KubernetesConfig selects the cluster and the namespaces to watch.
type KubernetesConfig struct {
	Kubeconfig    string   `yaml:"kubeconfig,omitempty"`    // Path to a kubeconfig file (default: in-cluster or $KUBECONFIG)
	Context       string   `yaml:"context,omitempty"`       // Kubeconfig context to use (default: current context)
	Namespaces    []string `yaml:"namespaces,omitempty"`    // Namespaces whose watch access is checked at startup
	LabelSelector string   `yaml:"labelSelector,omitempty"` // Selector for JobManager pods (default: native Flink labels)
}

// TrackerConfig holds the observation and reconciliation settings.
type TrackerConfig struct {
	PollInterval       time.Duration `yaml:"pollInterval"`
	StaleAfter         time.Duration `yaml:"staleAfter"`
	PollConcurrency    int           `yaml:"pollConcurrency"`
	PollTimeout        time.Duration `yaml:"pollTimeout"`
	PollQPS            float64       `yaml:"pollQPS"`
	PollBurst          int           `yaml:"pollBurst"`
	ExpectationTimeout time.Duration `yaml:"expectationTimeout"`
	SweepInterval      time.Duration `yaml:"sweepInterval"`
	LostGracePeriod    time.Duration `yaml:"lostGracePeriod"`
	WatchEnabled       bool          `yaml:"watchEnabled"`
	ResyncPeriod       time.Duration `yaml:"resyncPeriod"`
	WatchRetryInitial  time.Duration `yaml:"watchRetryInitial"`
	WatchRetryMax      time.Duration `yaml:"watchRetryMax"`
}

// EventsConfig controls where tracker events are written besides the bus.
type EventsConfig struct {
	RecordKubernetesEvents bool `yaml:"recordKubernetesEvents"` // Write v1 Events against the job's Deployment
	Buffer                 int  `yaml:"buffer,omitempty"`       // Recorder queue length
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TrackerSettings converts the file settings into the tracker's own config.
func (c Config) TrackerSettings() tracker.Config {
	t := c.Tracker
	return tracker.Config{
		Poll: poll.Config{
			Interval:        t.PollInterval,
			StaleAfter:      t.StaleAfter,
			Concurrency:     t.PollConcurrency,
			QueryTimeout:    t.PollTimeout,
			QPS:             t.PollQPS,
			Burst:           t.PollBurst,
			LostGracePeriod: t.LostGracePeriod,
		},
		ExpectationTimeout: t.ExpectationTimeout,
		SweepInterval:      t.SweepInterval,
		WatchEnabled:       t.WatchEnabled,
		WatchRetryInitial:  t.WatchRetryInitial,
		WatchRetryMax:      t.WatchRetryMax,
	}
}

// Selector parses the configured pod label selector. It returns nil when
// none is configured, meaning the default JobManager selector.
func (k KubernetesConfig) Selector() (labels.Selector, error) {
	if k.LabelSelector == "" {
		return nil, nil
	}
	return labels.Parse(k.LabelSelector)
}

// LogLevel returns the configured log level.
func (l LoggingConfig) LogLevel() logging.LogLevel {
	return logging.ParseLevel(l.Level)
}

// LogFormat returns the configured log format.
func (l LoggingConfig) LogFormat() logging.Format {
	if l.Format == string(logging.FormatJSON) {
		return logging.FormatJSON
	}
	return logging.FormatText
}
