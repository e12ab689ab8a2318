package types

// Category is the behavioral classification of a slot's current item.
type Category string

// Behavioral categories.
const (
	// CategoryAnchor marks items that hold attention far longer than average.
	CategoryAnchor Category = "Anchor"

	// CategoryMagnet marks items that convert far better than average.
	CategoryMagnet Category = "Magnet"

	// CategoryRisk marks items that are abandoned far more often than average.
	CategoryRisk Category = "Risk"

	// CategoryDiscovery marks rarely touched items that convert poorly.
	CategoryDiscovery Category = "Discovery"

	// CategoryNormal marks items without notable deviation.
	CategoryNormal Category = "Normal"
)

// Categories lists all categories in classification priority order.
var Categories = []Category{
	CategoryAnchor,
	CategoryMagnet,
	CategoryRisk,
	CategoryDiscovery,
	CategoryNormal,
}

// Zone is a proportional partition of slots by distance from the entrance.
type Zone string

// Placement zones.
const (
	ZoneFront  Zone = "Front"
	ZoneMiddle Zone = "Middle"
	ZoneBack   Zone = "Back"

	// ZoneAny means the item has no zone preference.
	ZoneAny Zone = ""
)

// Zones lists the concrete zones in spatial order.
var Zones = []Zone{ZoneFront, ZoneMiddle, ZoneBack}

// Valid reports whether z is a concrete zone.
func (z Zone) Valid() bool {
	return z == ZoneFront || z == ZoneMiddle || z == ZoneBack
}

// String returns the zone name, or "Any" for ZoneAny.
func (z Zone) String() string {
	if z == ZoneAny {
		return "Any"
	}

	return string(z)
}

// CategorizedSlot is a slot's metrics together with its classification.
type CategorizedSlot struct {
	SlotMetrics

	// Category is the single behavioral category assigned to the item.
	Category Category `json:"category"`

	// TargetZone is the preferred placement zone (ZoneAny for Normal).
	TargetZone Zone `json:"targetZone"`

	// Rationale explains the classification in human-readable form.
	Rationale string `json:"rationale"`

	// Payload is the display metadata currently shown at the item's own slot.
	// It is what moves when the item is reassigned.
	Payload DisplayMetadata `json:"payload"`
}

// CategoryCounts tallies categorized slots per category.
func CategoryCounts(items []CategorizedSlot) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for _, item := range items {
		counts[item.Category]++
	}

	return counts
}
