package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"flinktrack/internal/app"
	"flinktrack/internal/formatting"
	"flinktrack/internal/tracker"
	"flinktrack/internal/tracking"
	"flinktrack/pkg/logging"
)

// trackOptions holds the flags of the track command.
type trackOptions struct {
	expect      string
	configPath  string
	output      string
	interval    time.Duration
	debug       bool
	showMetrics bool
	noColor     bool
}

func newTrackCmd() *cobra.Command {
	opts := &trackOptions{}

	cmd := &cobra.Command{
		Use:   "track NAMESPACE/NAME=APPID...",
		Short: "Track Flink jobs and report their state",
		Long: `Tracks the given Flink jobs until interrupted, printing a summary of
their observed state at a fixed interval.

Each job is named by the namespace and name of its Flink cluster deployment
and by its application id, e.g. prod/wordcount=42.

With --expect, every job gets an expectation: flinktrack reports when the
job reaches that state, or when it does not within the configured
expectation timeout.

Examples:
  flinktrack track prod/wordcount=42
  flinktrack track prod/wordcount=42 prod/sessionize=43 --expect RUNNING
  flinktrack track prod/wordcount=42 --expect CANCELLED --output yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.expect, "expect", "", "State every job is expected to reach (e.g. RUNNING, CANCELLED)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Configuration file (default is $HOME/.config/flinktrack/config.yaml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", string(formatting.FormatTable), "Output format: table, yaml or json")
	cmd.Flags().DurationVar(&opts.interval, "interval", 10*time.Second, "How often the summary is printed")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.showMetrics, "show-metrics", false, "Print tracker metrics on exit")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored table output")

	return cmd
}

// trackRequest is the validated input of a track run.
type trackRequest struct {
	jobs   []tracking.Identity
	expect tracking.JobState
	format formatting.OutputFormat
}

func parseTrackRequest(opts *trackOptions, args []string) (trackRequest, error) {
	var req trackRequest

	seen := make(map[tracking.Identity]bool, len(args))
	for _, arg := range args {
		id, err := tracking.ParseIdentity(arg)
		if err != nil {
			return trackRequest{}, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		req.jobs = append(req.jobs, id)
	}

	if opts.expect != "" {
		req.expect = tracking.ParseJobState(opts.expect)
		if req.expect == tracking.StateUnknown {
			return trackRequest{}, fmt.Errorf("invalid --expect state %q", opts.expect)
		}
	}

	format, err := formatting.ParseOutputFormat(opts.output)
	if err != nil {
		return trackRequest{}, err
	}
	req.format = format

	if opts.interval <= 0 {
		return trackRequest{}, fmt.Errorf("--interval must be positive")
	}
	return req, nil
}

func runTrack(cmd *cobra.Command, opts *trackOptions, args []string) error {
	req, err := parseTrackRequest(opts, args)
	if err != nil {
		return err
	}

	application, err := app.NewApplication(app.NewConfig(opts.debug, opts.configPath))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	out := cmd.OutOrStdout()
	formatter := formatting.NewFormatter(formatting.Options{Format: req.format, Color: !opts.noColor})

	err = application.Run(cmd.Context(), app.RunOptions{
		OnStarted: func(t *tracker.Tracker) error {
			return startTracking(t, req)
		},
		Report: func(summary []tracker.JobSummary) {
			printSummary(out, formatter, summary)
		},
		ReportInterval: opts.interval,
	})
	if err != nil {
		return err
	}

	if opts.showMetrics {
		return formatter.FormatMetrics(out, application.Tracker().Metrics())
	}
	return nil
}

// startTracking puts every requested job under observation and sets the
// requested expectation.
func startTracking(t *tracker.Tracker, req trackRequest) error {
	for _, id := range req.jobs {
		t.Track(id)
		if req.expect == "" {
			continue
		}
		if err := t.SetExpectation(id, req.expect); err != nil {
			return fmt.Errorf("failed to set expectation for %s: %w", id, err)
		}
	}
	return nil
}

func printSummary(w io.Writer, formatter formatting.Formatter, summary []tracker.JobSummary) {
	if err := formatter.FormatJobs(w, summary); err != nil {
		logging.Error("CLI", err, "Failed to print job summary")
	}
}
