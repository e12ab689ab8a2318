package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods may be called from the runner goroutine and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	PipelineMetrics
	PublisherMetrics
}

// PipelineMetrics defines metrics for pipeline runs.
type PipelineMetrics interface {
	// RecordRun records a completed pipeline run.
	//
	// Parameters:
	//   - duration: Time taken in seconds
	//   - slots: Number of physical slots in the snapshot
	//   - success: false if a source failed
	RecordRun(duration float64, slots int, success bool)

	// RecordCategoryCounts sets the current number of slots per category (gauge metric).
	RecordCategoryCounts(counts map[Category]int)

	// RecordMoves records how many slots changed content in the latest layout.
	RecordMoves(moves int)

	// RecordEventsIgnored records events excluded from aggregation.
	//
	// Parameters:
	//   - reason: "out_of_window", "unknown_type" or "unknown_slot"
	//   - count: Number of events
	RecordEventsIgnored(reason string, count int)
}

// PublisherMetrics defines metrics for layout publishing.
type PublisherMetrics interface {
	// RecordPublish records a layout publish attempt.
	//
	// Parameters:
	//   - version: Layout version published
	//   - success: true if the layout was written
	RecordPublish(version int64, success bool)
}
