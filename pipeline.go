package slotwise

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/slotwise/aggregate"
	"github.com/arloliu/slotwise/categorize"
	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/internal/metrics"
	"github.com/arloliu/slotwise/strategy"
	"github.com/arloliu/slotwise/types"
	"github.com/arloliu/slotwise/zone"
)

// Reasons reported to MetricsCollector.RecordEventsIgnored.
const (
	IgnoredOutOfWindow = "out_of_window"
	IgnoredUnknownType = "unknown_type"
	IgnoredUnknownSlot = "unknown_slot"
)

// Pipeline runs aggregation, categorization, zone partitioning and layout
// assignment over a snapshot fetched from its sources.
//
// A Pipeline holds no per-run state; Compute and Run are safe for concurrent use.
type Pipeline struct {
	events types.EventSource
	slots  types.SlotSource

	aggregator  *aggregate.Aggregator
	categorizer *categorize.Categorizer
	strategy    types.LayoutStrategy

	storeID string
	degrade bool
	now     func() time.Time

	logger  types.Logger
	metrics types.MetricsCollector
}

// NewPipeline creates a pipeline reading from the given sources.
//
// Parameters:
//   - events: Source of raw behavioral events
//   - slots: Source of the physical slot snapshot
//   - opts: Optional configuration (WithStrategy, WithLogger, WithMetrics, WithConfig, ...)
//
// Returns:
//   - *Pipeline: Initialized pipeline
//   - error: ErrEventSourceRequired, ErrSlotSourceRequired or ErrInvalidConfig
//
// Example:
//
//	pipeline, err := slotwise.NewPipeline(
//	    source.NewStatic(events),
//	    source.NewStaticSlots(slots),
//	    slotwise.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := pipeline.Run(ctx, slotwise.TimeRange{})
func NewPipeline(events EventSource, slots SlotSource, opts ...Option) (*Pipeline, error) {
	if events == nil {
		return nil, ErrEventSourceRequired
	}
	if slots == nil {
		return nil, ErrSlotSourceRequired
	}

	options := pipelineOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	p := &Pipeline{
		events:  events,
		slots:   slots,
		storeID: options.storeID,
		now:     options.now,
		logger:  options.logger,
		metrics: options.metrics,
	}

	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.metrics == nil {
		p.metrics = metrics.NewNop()
	}
	if p.now == nil {
		p.now = time.Now
	}

	layout := options.strategy
	if options.cfg != nil {
		if err := options.cfg.Validate(); err != nil {
			return nil, err
		}
		if p.storeID == "" {
			p.storeID = options.cfg.StoreID
		}
		p.degrade = options.cfg.DegradeOnSourceError

		if layout == nil {
			s, err := strategy.New(options.cfg.Layout.Strategy, options.cfg.Layout.FallbackOrder)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
			}
			layout = s
		}
	}
	if options.degrade != nil {
		p.degrade = *options.degrade
	}
	if layout == nil {
		layout = strategy.NewZonePriority()
	}
	p.strategy = layout

	p.aggregator = aggregate.New(aggregate.WithLogger(p.logger))

	catOpts := []categorize.Option{categorize.WithLogger(p.logger)}
	if options.rules != nil {
		catOpts = append(catOpts, categorize.WithRules(options.rules))
	}
	p.categorizer = categorize.New(catOpts...)

	return p, nil
}

// Compute runs the four pipeline stages over an in-memory snapshot.
//
// Compute never fails and has no side effects besides debug logging. The slot
// order of the snapshot seeds aggregation, so every slot appears in the result
// even without events.
//
// Parameters:
//   - events: Raw events (not modified)
//   - slots: Physical slot snapshot (not modified)
//   - window: Event window; the zero TimeRange is unbounded
//
// Returns:
//   - *types.Result: Metrics, categorization, zones and layout
func (p *Pipeline) Compute(events []types.Event, slots []types.PhysicalSlot, window types.TimeRange) *types.Result {
	zones := zone.Partition(slots)

	slotMetrics, stats := p.aggregator.Aggregate(events, window, types.SlotIDs(slots))
	categorized, averages := p.categorizer.Categorize(slotMetrics)
	joinPayloads(categorized, slots)

	layout := p.strategy.Assign(categorized, zones)

	p.logger.Debug("layout computed",
		"slots", len(slots),
		"events", stats.EventsSeen,
		"events_ignored", stats.Ignored(),
		"moves", len(layout.Moves()),
		"unplaced", len(layout.Unplaced),
	)

	return &types.Result{
		StoreID:     p.storeID,
		Window:      window,
		GeneratedAt: p.now(),
		Metrics:     slotMetrics,
		Averages:    averages,
		Categorized: categorized,
		Zones:       zones,
		Layout:      layout,
		Stats:       stats,
	}
}

// Run fetches a snapshot from the sources and computes its layout.
//
// Source failures are the only errors. A failing event source degrades to an
// empty event set when the pipeline was configured with DegradeOnSourceError,
// which yields the identity layout.
//
// Parameters:
//   - ctx: Context for source queries
//   - window: Event window to analyze
//
// Returns:
//   - *types.Result: Computed result
//   - error: ErrSlotSource or ErrEventSource wrapping the source failure
func (p *Pipeline) Run(ctx context.Context, window types.TimeRange) (*types.Result, error) {
	start := time.Now()

	slots, err := p.slots.ListSlots(ctx)
	if err != nil {
		p.metrics.RecordRun(time.Since(start).Seconds(), 0, false)
		return nil, fmt.Errorf("%w: %w", ErrSlotSource, err)
	}

	events, err := p.events.ListEvents(ctx, window)
	if err != nil {
		if !p.degrade {
			p.metrics.RecordRun(time.Since(start).Seconds(), len(slots), false)
			return nil, fmt.Errorf("%w: %w", ErrEventSource, err)
		}

		p.logger.Warn("event source failed, computing identity layout", "error", err)
		events = nil
	}

	result := p.Compute(events, slots, window)
	p.record(result, time.Since(start), err == nil)

	p.logger.Info("pipeline run completed",
		"store_id", result.StoreID,
		"slots", len(slots),
		"events", result.Stats.EventsInWindow,
		"moves", len(result.Layout.Moves()),
		"duration", time.Since(start),
	)

	return result, nil
}

// Now returns the pipeline clock time.
func (p *Pipeline) Now() time.Time {
	return p.now()
}

// Strategy returns the layout strategy in use.
func (p *Pipeline) Strategy() LayoutStrategy {
	return p.strategy
}

func (p *Pipeline) record(result *types.Result, duration time.Duration, success bool) {
	p.metrics.RecordRun(duration.Seconds(), result.Zones.Len(), success)
	p.metrics.RecordCategoryCounts(categorize.Counts(result.Categorized))
	p.metrics.RecordMoves(len(result.Layout.Moves()))
	p.metrics.RecordEventsIgnored(IgnoredOutOfWindow, result.Stats.OutOfWindow)
	p.metrics.RecordEventsIgnored(IgnoredUnknownType, result.Stats.UnknownType)
	p.metrics.RecordEventsIgnored(IgnoredUnknownSlot, result.Stats.UnknownSlot)
}

// joinPayloads copies each slot's current display metadata onto its categorized item.
func joinPayloads(items []types.CategorizedSlot, slots []types.PhysicalSlot) {
	bySlot := make(map[string]types.DisplayMetadata, len(slots))
	for _, s := range slots {
		if _, dup := bySlot[s.SlotID]; !dup {
			bySlot[s.SlotID] = s.Metadata
		}
	}

	for i := range items {
		items[i].Payload = bySlot[items[i].SlotID].Clone()
	}
}

// Compute runs the pipeline stages with default rules and the zone priority strategy.
//
// It is a convenience for one-shot batch use without sources.
func Compute(events []types.Event, slots []types.PhysicalSlot, window types.TimeRange) *types.Result {
	p := &Pipeline{
		aggregator:  aggregate.New(),
		categorizer: categorize.New(),
		strategy:    strategy.NewZonePriority(),
		now:         time.Now,
		logger:      logging.NewNop(),
		metrics:     metrics.NewNop(),
	}

	return p.Compute(events, slots, window)
}
