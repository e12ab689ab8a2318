package types

// Logger is the structured logger used by the pipeline, runner, sources and
// NATS publishers.
//
// Arguments after msg are alternating key-value pairs, e.g.
// logger.Info("layout published", "store_id", id, "version", v).
// zap.SugaredLogger satisfies it directly; internal/logging adapts log/slog.
//
// Levels as used here:
//   - Debug: per-event detail (ignored events, missing durations, skipped KV entries)
//   - Info: run summaries, layout changes, lease transitions
//   - Warn: degraded runs, transient NATS failures, lost leases
//   - Error: failed runs and hook errors
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// Fatal logs at the highest level and exits the process (the test logger
	// fails the test instead and the no-op logger discards). Library code never
	// calls it.
	Fatal(msg string, keysAndValues ...any)
}
