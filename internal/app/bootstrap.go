package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"flinktrack/internal/config"
	"flinktrack/internal/events"
	"flinktrack/internal/poll"
	"flinktrack/internal/tracker"
	"flinktrack/internal/watch"
	"flinktrack/pkg/logging"
)

const defaultPreflightTimeout = 15 * time.Second

// Application represents the main application structure that bootstraps and runs flinktrack.
// It owns the Kubernetes clients, the tracker and the optional event recorder.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: Load configuration, initialize logging, connect to the cluster
//  2. Execution phase: Run the tracker until interrupted
//
// Example usage:
//
//	cfg := app.NewConfig(true, "")  // debug enabled, default config file
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx, app.RunOptions{})
type Application struct {
	config   *Config
	settings config.Config
	clock    clockwork.Clock

	tracker      *tracker.Tracker
	recorder     *events.KubernetesRecorder
	watchEnabled bool

	cancel       context.CancelFunc
	recorderDone <-chan struct{}
}

// appDeps lets tests replace the cluster connection and the clock.
type appDeps struct {
	clients          *Clients
	clock            clockwork.Clock
	preflightTimeout time.Duration
}

// NewApplication creates and initializes a new application instance with the provided configuration.
// This function performs the complete bootstrap sequence:
//
//  1. Loads the configuration file (unless cfg.Settings is already set)
//  2. Configures logging from the file and the debug flag
//  3. Connects to the cluster
//  4. Verifies watch access and builds the tracker
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stderr
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(appLogLevel, logOutput)

	if cfg.Settings == nil {
		settings, err := config.LoadConfig(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load flinktrack configuration")
			return nil, fmt.Errorf("failed to load flinktrack configuration: %w", err)
		}
		cfg.Settings = &settings
	}

	if !cfg.Debug {
		appLogLevel = cfg.Settings.Logging.LogLevel()
	}
	logging.Init(appLogLevel, cfg.Settings.Logging.LogFormat(), logOutput)

	clients, err := NewClients(cfg.Settings.Kubernetes)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to connect to Kubernetes")
		return nil, fmt.Errorf("failed to connect to Kubernetes: %w", err)
	}

	return newApplication(cfg, appDeps{
		clients:          clients,
		clock:            clockwork.NewRealClock(),
		preflightTimeout: defaultPreflightTimeout,
	})
}

func newApplication(cfg *Config, deps appDeps) (*Application, error) {
	settings := *cfg.Settings

	selector, err := settings.Kubernetes.Selector()
	if err != nil {
		return nil, fmt.Errorf("invalid label selector: %w", err)
	}

	subscriber := watch.NewInformerSubscriber(deps.clients.Clientset, settings.Tracker.ResyncPeriod, selector)
	trackerCfg := settings.TrackerSettings()
	if trackerCfg.WatchEnabled {
		trackerCfg.WatchEnabled = preflightWatch(subscriber, settings.Kubernetes.Namespaces, deps.preflightTimeout)
	}

	t, err := tracker.New(trackerCfg, tracker.Deps{
		Subscriber: subscriber,
		Querier:    poll.NewKubernetesQuerier(deps.clients.Client),
		Clock:      deps.clock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracker: %w", err)
	}

	a := &Application{
		config:       cfg,
		settings:     settings,
		clock:        deps.clock,
		tracker:      t,
		watchEnabled: trackerCfg.WatchEnabled,
	}
	if settings.Events.RecordKubernetesEvents {
		a.recorder = events.NewKubernetesRecorder(deps.clients.Client, deps.clock)
	}
	return a, nil
}

// preflightWatch subscribes once to each namespace with a handler that
// ignores everything and tears the subscription down again. It reports
// whether every namespace could be watched; if not, jobs are polled only.
func preflightWatch(subscriber watch.Subscriber, namespaces []string, timeout time.Duration) bool {
	for _, ns := range namespaces {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		sub, err := subscriber.Subscribe(ctx, ns, watch.NopHandler{})
		cancel()
		if err != nil {
			logging.Warn("Bootstrap", "Cannot watch pods in namespace %s, falling back to polling only: %v", ns, err)
			return false
		}
		sub.Stop()
		logging.Debug("Bootstrap", "Watch access to namespace %s verified", ns)
	}
	return true
}

// Tracker returns the application's tracker.
func (a *Application) Tracker() *tracker.Tracker {
	return a.tracker
}

// WatchEnabled reports whether live watches are used.
func (a *Application) WatchEnabled() bool {
	return a.watchEnabled
}

// Start starts the tracker and, when configured, the Kubernetes event recorder.
func (a *Application) Start(ctx context.Context) error {
	// The recorder subscribes first so it sees every event of the run.
	if a.recorder != nil {
		recorderCtx, cancel := context.WithCancel(ctx)
		a.cancel = cancel
		a.recorderDone = a.recorder.Start(recorderCtx, a.tracker.Bus(), a.settings.Events.Buffer)
	}

	if err := a.tracker.Start(ctx); err != nil {
		a.stopRecorder()
		return fmt.Errorf("failed to start tracker: %w", err)
	}
	return nil
}

// Stop stops the tracker and the event recorder.
func (a *Application) Stop() {
	a.tracker.Stop()
	a.stopRecorder()
}

func (a *Application) stopRecorder() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.recorderDone
	a.cancel = nil
}
