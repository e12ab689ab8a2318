package aggregate

import (
	"cmp"
	"slices"
	"time"

	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/types"
)

// Aggregator groups events by slot and computes behavioral metrics.
//
// An Aggregator holds no per-run state and is safe for concurrent use.
type Aggregator struct {
	logger types.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger used for debug output about skipped events.
func WithLogger(logger types.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Aggregator.
//
// Parameters:
//   - opts: Optional configuration (WithLogger)
//
// Returns:
//   - *Aggregator: Initialized aggregator
func New(opts ...Option) *Aggregator {
	a := &Aggregator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// accumulator collects raw counts for one slot before rates are derived.
type accumulator struct {
	metrics   types.SlotMetrics
	dwellSum  float64
	dwellN    int
	labelSeen time.Time
	hasLabel  bool
}

// Aggregate computes per-slot metrics for events inside window.
//
// When seed is non-nil the output contains exactly the seeded slots, in seed
// order, and events for any other slot are ignored. When seed is nil every
// slot seen in the window is reported, ordered by slot id.
//
// Parameters:
//   - events: Raw events (not modified)
//   - window: Half-open time window; zero bounds are unbounded
//   - seed: Full slot id set, typically types.SlotIDs(slots)
//
// Returns:
//   - []types.SlotMetrics: Metrics per slot
//   - types.AggregateStats: How the events were consumed
func (a *Aggregator) Aggregate(events []types.Event, window types.TimeRange, seed []string) ([]types.SlotMetrics, types.AggregateStats) {
	stats := types.AggregateStats{EventsSeen: len(events)}

	seeded := seed != nil
	index := make(map[string]int, len(seed))
	accs := make([]*accumulator, 0, len(seed))
	add := func(id string) int {
		idx := len(accs)
		index[id] = idx
		accs = append(accs, &accumulator{metrics: types.SlotMetrics{SlotID: id}})

		return idx
	}
	for _, id := range seed {
		if _, dup := index[id]; dup {
			continue
		}
		add(id)
	}

	for _, ev := range events {
		if !window.Contains(ev.Timestamp) {
			stats.OutOfWindow++
			continue
		}
		if !ev.Type.Valid() {
			stats.UnknownType++
			a.logger.Debug("ignoring event with unknown type", "slot_id", ev.SlotID, "event_type", string(ev.Type))

			continue
		}

		idx, ok := index[ev.SlotID]
		if !ok {
			if seeded || ev.SlotID == "" {
				stats.UnknownSlot++
				a.logger.Debug("ignoring event for unknown slot", "slot_id", ev.SlotID)

				continue
			}
			idx = add(ev.SlotID)
		}

		stats.EventsInWindow++
		accs[idx].observe(ev)
	}

	out := make([]types.SlotMetrics, len(accs))
	for i, acc := range accs {
		out[i] = acc.finish()
	}
	if !seeded {
		slices.SortFunc(out, func(x, y types.SlotMetrics) int {
			return cmp.Compare(x.SlotID, y.SlotID)
		})
	}

	return out, stats
}

func (acc *accumulator) observe(ev types.Event) {
	switch ev.Type {
	case types.EventMoved:
		acc.metrics.Pickups++
	case types.EventPurchased:
		acc.metrics.Purchases++
	case types.EventCartAbandoned:
		acc.metrics.Abandons++
	case types.EventWindowShopped:
		acc.metrics.WindowShopped++
	}

	if d, ok := ev.Duration(); ok {
		acc.dwellSum += d
		acc.dwellN++
	}

	// Most recent labelled event wins; on equal timestamps the later event does.
	if ev.ClassLabel != "" && (!acc.hasLabel || !ev.Timestamp.Before(acc.labelSeen)) {
		acc.metrics.ClassLabel = ev.ClassLabel
		acc.labelSeen = ev.Timestamp
		acc.hasLabel = true
	}
}

func (acc *accumulator) finish() types.SlotMetrics {
	m := acc.metrics
	m.TotalInteractions = m.Purchases + m.Abandons + m.WindowShopped
	if m.TotalInteractions > 0 {
		total := float64(m.TotalInteractions)
		m.ConversionRate = float64(m.Purchases) / total * 100
		m.AbandonmentRate = float64(m.Abandons) / total * 100
	}
	if acc.dwellN > 0 {
		m.AverageDwellSeconds = acc.dwellSum / float64(acc.dwellN)
	}

	return m
}

// Aggregate computes metrics with a default Aggregator.
func Aggregate(events []types.Event, window types.TimeRange, seed []string) ([]types.SlotMetrics, types.AggregateStats) {
	return New().Aggregate(events, window, seed)
}
