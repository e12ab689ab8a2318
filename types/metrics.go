package types

// SlotMetrics holds behavioral metrics for one slot over a time window.
//
// Metrics are derived fresh on every run and never mutated after aggregation.
//
// Invariants:
//   - TotalInteractions == Purchases + Abandons + WindowShopped
//   - Pickups (MOVED events) are excluded from TotalInteractions
//   - ConversionRate and AbandonmentRate are percentages in [0, 100], and 0 when TotalInteractions is 0
type SlotMetrics struct {
	SlotID              string  `json:"slotId"`
	ClassLabel          string  `json:"classLabel,omitempty"`
	Pickups             int     `json:"pickups"`
	Purchases           int     `json:"purchases"`
	Abandons            int     `json:"abandons"`
	WindowShopped       int     `json:"windowShopped"`
	TotalInteractions   int     `json:"totalInteractions"`
	ConversionRate      float64 `json:"conversionRate"`
	AbandonmentRate     float64 `json:"abandonmentRate"`
	AverageDwellSeconds float64 `json:"averageDwellSeconds"`
}

// PopulationAverages are simple means of per-slot metrics across all slots of one run.
type PopulationAverages struct {
	DwellSeconds    float64 `json:"dwellSeconds"`
	ConversionRate  float64 `json:"conversionRate"`
	AbandonmentRate float64 `json:"abandonmentRate"`
	SlotCount       int     `json:"slotCount"`
}

// AggregateStats describes how the raw event set was consumed by aggregation.
type AggregateStats struct {
	// EventsSeen is the number of events handed to the aggregator.
	EventsSeen int `json:"eventsSeen"`

	// EventsInWindow is the number of events that contributed to metrics.
	EventsInWindow int `json:"eventsInWindow"`

	// OutOfWindow counts events excluded by the time window.
	OutOfWindow int `json:"outOfWindow"`

	// UnknownType counts events with an unrecognized event type.
	UnknownType int `json:"unknownType"`

	// UnknownSlot counts events for slots outside the seeded slot set.
	UnknownSlot int `json:"unknownSlot"`
}

// Ignored returns the number of events that did not contribute to metrics.
func (s AggregateStats) Ignored() int {
	return s.OutOfWindow + s.UnknownType + s.UnknownSlot
}

// MetricsByID indexes metrics by slot id.
func MetricsByID(metrics []SlotMetrics) map[string]SlotMetrics {
	out := make(map[string]SlotMetrics, len(metrics))
	for _, m := range metrics {
		out[m.SlotID] = m
	}

	return out
}
