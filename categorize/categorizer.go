package categorize

import (
	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/types"
)

// Categorizer assigns exactly one category to every slot.
type Categorizer struct {
	rules  []Rule
	logger types.Logger
}

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithRules replaces the classification table.
//
// Rules are evaluated in order and the first match wins. Slots matching no rule
// are Normal. An empty table makes every slot Normal.
func WithRules(rules []Rule) Option {
	return func(c *Categorizer) {
		c.rules = append([]Rule(nil), rules...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger types.Logger) Option {
	return func(c *Categorizer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Categorizer using DefaultRules unless overridden.
func New(opts ...Option) *Categorizer {
	c := &Categorizer{
		rules:  DefaultRules(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Categorize classifies every slot against the population averages of metrics.
//
// Output order matches input order. Payload is left empty; the pipeline joins
// display metadata afterwards.
//
// Parameters:
//   - metrics: Per-slot metrics of one run
//
// Returns:
//   - []types.CategorizedSlot: One entry per input slot
//   - types.PopulationAverages: Averages the rules were evaluated against
func (c *Categorizer) Categorize(metrics []types.SlotMetrics) ([]types.CategorizedSlot, types.PopulationAverages) {
	avg := Averages(metrics)

	out := make([]types.CategorizedSlot, len(metrics))
	for i, m := range metrics {
		out[i] = c.classify(m, avg)
	}

	c.logger.Debug("categorized slots",
		"slots", len(out),
		"avg_dwell_seconds", avg.DwellSeconds,
		"avg_conversion_rate", avg.ConversionRate,
		"avg_abandonment_rate", avg.AbandonmentRate,
	)

	return out, avg
}

func (c *Categorizer) classify(m types.SlotMetrics, avg types.PopulationAverages) types.CategorizedSlot {
	for _, rule := range c.rules {
		if rule.Match == nil || !rule.Match(m, avg) {
			continue
		}

		cs := types.CategorizedSlot{SlotMetrics: m, Category: rule.Category, TargetZone: rule.Zone}
		if rule.Explain != nil {
			cs.Rationale = rule.Explain(m, avg)
		}

		return cs
	}

	return types.CategorizedSlot{
		SlotMetrics: m,
		Category:    types.CategoryNormal,
		TargetZone:  types.ZoneAny,
		Rationale:   explainNormal(m, avg),
	}
}

// Averages computes simple means of dwell, conversion and abandonment.
//
// An empty population yields all-zero averages.
func Averages(metrics []types.SlotMetrics) types.PopulationAverages {
	n := len(metrics)
	if n == 0 {
		return types.PopulationAverages{}
	}

	var dwell, conv, aband float64
	for _, m := range metrics {
		dwell += m.AverageDwellSeconds
		conv += m.ConversionRate
		aband += m.AbandonmentRate
	}

	return types.PopulationAverages{
		DwellSeconds:    dwell / float64(n),
		ConversionRate:  conv / float64(n),
		AbandonmentRate: aband / float64(n),
		SlotCount:       n,
	}
}

// Counts summarizes how many slots fall into each category.
func Counts(items []types.CategorizedSlot) map[types.Category]int {
	return types.CategoryCounts(items)
}

// Categorize classifies metrics with the default rules.
func Categorize(metrics []types.SlotMetrics) ([]types.CategorizedSlot, types.PopulationAverages) {
	return New().Categorize(metrics)
}
