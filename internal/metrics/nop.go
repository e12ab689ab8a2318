// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/slotwise/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Example:
//
//	pipeline, _ := slotwise.NewPipeline(events, slots, slotwise.WithMetrics(metrics.NewNop()))
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RecordRun discards the run metric.
func (n *NopMetrics) RecordRun(_ /* duration */ float64, _ /* slots */ int, _ /* success */ bool) {
	// No-op
}

// RecordCategoryCounts discards the category gauge.
func (n *NopMetrics) RecordCategoryCounts(_ /* counts */ map[types.Category]int) {
	// No-op
}

// RecordMoves discards the moves metric.
func (n *NopMetrics) RecordMoves(_ /* moves */ int) {
	// No-op
}

// RecordEventsIgnored discards the ignored events metric.
func (n *NopMetrics) RecordEventsIgnored(_ /* reason */ string, _ /* count */ int) {
	// No-op
}

// RecordPublish discards the publish metric.
func (n *NopMetrics) RecordPublish(_ /* version */ int64, _ /* success */ bool) {
	// No-op
}
