package types

import "maps"

// DisplayMetadata is the content shown at a slot.
//
// It is the only part of a slot that layout assignment may overwrite.
type DisplayMetadata struct {
	// Label is the human-readable item name shown at the slot.
	Label string `json:"label,omitempty" yaml:"label"`

	// ItemType is the item class (e.g., "beverage", "snack").
	ItemType string `json:"itemType,omitempty" yaml:"itemType"`

	// Counters carries item-level counters that travel with the content (e.g., "purchases").
	Counters map[string]int `json:"counters,omitempty" yaml:"counters"`
}

// Clone returns a deep copy of the metadata.
func (m DisplayMetadata) Clone() DisplayMetadata {
	out := m
	if m.Counters != nil {
		out.Counters = maps.Clone(m.Counters)
	}

	return out
}

// IsZero reports whether the metadata carries no content.
func (m DisplayMetadata) IsZero() bool {
	return m.Label == "" && m.ItemType == "" && len(m.Counters) == 0
}

// PhysicalSlot is a fixed display position.
//
// X and Y are ground truth supplied by the external layout source and are never
// modified by this library.
type PhysicalSlot struct {
	// SlotID uniquely and stably identifies the slot.
	SlotID string `json:"slotId" yaml:"slotId"`

	// X is the horizontal coordinate.
	X float64 `json:"x" yaml:"x"`

	// Y is the depth coordinate; lower values are closer to the entrance.
	Y float64 `json:"y" yaml:"y"`

	// Metadata is the content currently displayed at the slot.
	Metadata DisplayMetadata `json:"metadata" yaml:"metadata"`
}

// SlotIDs returns the ids of slots in input order.
func SlotIDs(slots []PhysicalSlot) []string {
	ids := make([]string, len(slots))
	for i, s := range slots {
		ids[i] = s.SlotID
	}

	return ids
}
