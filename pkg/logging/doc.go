// Package logging provides subsystem-tagged structured logging for flinktrack.
//
// It is a thin layer over log/slog. Every entry carries a subsystem attribute
// (for example "Cache", "Poller", "Tracker") and, for errors, an error
// attribute. The controller-runtime and klog loggers are bridged onto the
// same handler during Init.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatText, os.Stderr)
//
//	logging.Info("Tracker", "Tracking %s", id)
//	logging.Debug("Poller", "Cycle selected %d candidates", n)
//	logging.Warn("Cache", "Rejected transition %s -> %s for %s", old, new, id)
//	logging.Error("WatchAdapter", err, "Subscription failed for namespace %s", ns)
package logging
