package types

import "time"

// Result is the serializable output of one pipeline run.
//
// It carries the computed layout plus the intermediate categorization, which
// explains why each item was moved.
type Result struct {
	StoreID     string             `json:"storeId,omitempty"`
	Window      TimeRange          `json:"window"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Metrics     []SlotMetrics      `json:"metrics"`
	Averages    PopulationAverages `json:"averages"`
	Categorized []CategorizedSlot  `json:"categorized"`
	Zones       ZonePartition      `json:"zones"`
	Layout      LayoutAssignment   `json:"layout"`
	Stats       AggregateStats     `json:"stats"`
}

// CategorizedByID indexes the categorized slots by slot id.
func (r *Result) CategorizedByID() map[string]CategorizedSlot {
	out := make(map[string]CategorizedSlot, len(r.Categorized))
	for _, c := range r.Categorized {
		out[c.SlotID] = c
	}

	return out
}

// LayoutRecord is the versioned layout document stored by the layout publisher.
type LayoutRecord struct {
	// Version increases by one on every publish for a bucket prefix.
	Version int64 `json:"version"`

	// StoreID identifies the store the layout belongs to.
	StoreID string `json:"storeId"`

	// Fingerprint is the layout fingerprint in hex.
	Fingerprint string `json:"fingerprint"`

	// PublishedAt is when the record was written.
	PublishedAt time.Time `json:"publishedAt"`

	// Window is the event window the layout was computed from.
	Window TimeRange `json:"window"`

	// Layout is the content-swap mapping.
	Layout LayoutAssignment `json:"layout"`

	// Categorized explains the categorization behind the layout.
	Categorized []CategorizedSlot `json:"categorized"`

	// Averages are the population averages of the run.
	Averages PopulationAverages `json:"averages"`
}
