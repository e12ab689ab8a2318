package categorize

import (
	"fmt"

	"github.com/arloliu/slotwise/types"
)

const (
	// HighMultiplier is the factor above the population average that marks a metric as high.
	HighMultiplier = 1.3

	// LowMultiplier is the factor below the population average that marks conversion as low.
	LowMultiplier = 0.7

	// DiscoveryMaxPickups is the exclusive pickup ceiling for the Discovery category.
	DiscoveryMaxPickups = 5
)

// Rule is one entry of the ordered classification table.
type Rule struct {
	// Category assigned when Match reports true.
	Category types.Category

	// Zone is the preferred placement zone for the category.
	Zone types.Zone

	// Match reports whether the slot belongs to the category.
	Match func(m types.SlotMetrics, avg types.PopulationAverages) bool

	// Explain renders the rationale for a match.
	Explain func(m types.SlotMetrics, avg types.PopulationAverages) string
}

// DefaultRules returns the standard classification table in priority order.
//
// The returned slice is a fresh copy and may be modified by the caller.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: types.CategoryAnchor,
			Zone:     types.ZoneMiddle,
			Match: func(m types.SlotMetrics, avg types.PopulationAverages) bool {
				return m.AverageDwellSeconds > avg.DwellSeconds*HighMultiplier
			},
			Explain: func(m types.SlotMetrics, avg types.PopulationAverages) string {
				return fmt.Sprintf("dwell time %.1fs vs average %.1fs (%s); holds attention, place in the middle to pull traffic inward",
					m.AverageDwellSeconds, avg.DwellSeconds, ratio(m.AverageDwellSeconds, avg.DwellSeconds))
			},
		},
		{
			Category: types.CategoryMagnet,
			Zone:     types.ZoneBack,
			Match: func(m types.SlotMetrics, avg types.PopulationAverages) bool {
				return m.ConversionRate > avg.ConversionRate*HighMultiplier
			},
			Explain: func(m types.SlotMetrics, avg types.PopulationAverages) string {
				return fmt.Sprintf("conversion %.1f%% vs average %.1f%% (%s); destination item, place at the back",
					m.ConversionRate, avg.ConversionRate, ratio(m.ConversionRate, avg.ConversionRate))
			},
		},
		{
			Category: types.CategoryRisk,
			Zone:     types.ZoneFront,
			Match: func(m types.SlotMetrics, avg types.PopulationAverages) bool {
				return m.AbandonmentRate > avg.AbandonmentRate*HighMultiplier
			},
			Explain: func(m types.SlotMetrics, avg types.PopulationAverages) string {
				return fmt.Sprintf("abandonment %.1f%% vs average %.1f%% (%s); frequently put back, place at the front",
					m.AbandonmentRate, avg.AbandonmentRate, ratio(m.AbandonmentRate, avg.AbandonmentRate))
			},
		},
		{
			Category: types.CategoryDiscovery,
			Zone:     types.ZoneMiddle,
			Match: func(m types.SlotMetrics, avg types.PopulationAverages) bool {
				return m.ConversionRate < avg.ConversionRate*LowMultiplier && m.Pickups < DiscoveryMaxPickups
			},
			Explain: func(m types.SlotMetrics, avg types.PopulationAverages) string {
				return fmt.Sprintf("conversion %.1f%% vs average %.1f%% (%s) with only %d pickups; needs exposure, place in the middle",
					m.ConversionRate, avg.ConversionRate, ratio(m.ConversionRate, avg.ConversionRate), m.Pickups)
			},
		},
	}
}

func explainNormal(m types.SlotMetrics, avg types.PopulationAverages) string {
	return fmt.Sprintf("no significant deviation: dwell %.1fs vs %.1fs, conversion %.1f%% vs %.1f%%, abandonment %.1f%% vs %.1f%%",
		m.AverageDwellSeconds, avg.DwellSeconds,
		m.ConversionRate, avg.ConversionRate,
		m.AbandonmentRate, avg.AbandonmentRate)
}

func ratio(v, avg float64) string {
	if avg == 0 {
		return "no baseline"
	}

	return fmt.Sprintf("%.2fx", v/avg)
}
