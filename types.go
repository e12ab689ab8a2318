package slotwise

import (
	"time"

	"github.com/arloliu/slotwise/types"
)

// Re-export types from the types package.
//
// Internal packages depend on types only, which keeps the stage packages free of
// import cycles while users can still write slotwise.Event, slotwise.Result and so on.
type (
	Event              = types.Event
	EventType          = types.EventType
	TimeRange          = types.TimeRange
	PhysicalSlot       = types.PhysicalSlot
	DisplayMetadata    = types.DisplayMetadata
	SlotMetrics        = types.SlotMetrics
	PopulationAverages = types.PopulationAverages
	AggregateStats     = types.AggregateStats
	Category           = types.Category
	Zone               = types.Zone
	CategorizedSlot    = types.CategorizedSlot
	ZonePartition      = types.ZonePartition
	Placement          = types.Placement
	LayoutAssignment   = types.LayoutAssignment
	Result             = types.Result
	LayoutRecord       = types.LayoutRecord
	RunnerStatus       = types.RunnerStatus
)

// Re-export interfaces from the types package.
type (
	EventSource      = types.EventSource
	SlotSource       = types.SlotSource
	LayoutStrategy   = types.LayoutStrategy
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
	PublisherLease   = types.PublisherLease
)

// Re-export event type constants.
const (
	EventWindowShopped = types.EventWindowShopped
	EventCartAbandoned = types.EventCartAbandoned
	EventPurchased     = types.EventPurchased
	EventMoved         = types.EventMoved
)

// Re-export category constants.
const (
	CategoryAnchor    = types.CategoryAnchor
	CategoryMagnet    = types.CategoryMagnet
	CategoryRisk      = types.CategoryRisk
	CategoryDiscovery = types.CategoryDiscovery
	CategoryNormal    = types.CategoryNormal
)

// Re-export zone constants.
const (
	ZoneFront  = types.ZoneFront
	ZoneMiddle = types.ZoneMiddle
	ZoneBack   = types.ZoneBack
	ZoneAny    = types.ZoneAny
)

// WindowEndingAt returns the half-open window of length d that ends at t.
func WindowEndingAt(t time.Time, d time.Duration) TimeRange {
	return types.WindowEndingAt(t, d)
}
