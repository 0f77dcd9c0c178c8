package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flinktrack/internal/tracker"
	"flinktrack/pkg/logging"
)

// RunOptions customise a Run.
type RunOptions struct {
	// OnStarted is called once the tracker runs, typically to track jobs
	// and set expectations. An error aborts the run.
	OnStarted func(t *tracker.Tracker) error

	// Report receives the job summary every ReportInterval and once more
	// on shutdown. Nothing is reported when Report is nil.
	Report         func(summary []tracker.JobSummary)
	ReportInterval time.Duration
}

// Run starts the application and blocks until ctx is cancelled or the
// process receives an interrupt signal.
//
// Signal Handling:
//   - SIGINT (Ctrl+C): Triggers graceful shutdown
//   - SIGTERM: Triggers graceful shutdown (common in container environments)
func (a *Application) Run(ctx context.Context, opts RunOptions) error {
	if err := a.Start(ctx); err != nil {
		logging.Error("CLI", err, "Failed to start tracker")
		return err
	}
	defer a.Stop()

	if opts.OnStarted != nil {
		if err := opts.OnStarted(a.tracker); err != nil {
			return err
		}
	}

	report := func() {
		if opts.Report != nil {
			opts.Report(a.tracker.Summary())
		}
	}

	var tick <-chan time.Time
	if opts.Report != nil && opts.ReportInterval > 0 {
		ticker := a.clock.NewTicker(opts.ReportInterval)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logging.Info("CLI", "Tracking. Press Ctrl+C to stop.")
	for {
		select {
		case <-ctx.Done():
			report()
			return nil
		case <-sigChan:
			logging.Info("CLI", "--- Shutting down ---")
			report()
			return nil
		case <-tick:
			report()
		}
	}
}
