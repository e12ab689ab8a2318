package types

import "github.com/arloliu/slotwise/internal/hash"

// ZonePartition splits slot ids into Front, Middle and Back zones.
//
// Each list is in spatial order (y ascending, then x ascending).
type ZonePartition struct {
	Front  []string `json:"front"`
	Middle []string `json:"middle"`
	Back   []string `json:"back"`
}

// Len returns the total number of slots across all zones.
func (p ZonePartition) Len() int {
	return len(p.Front) + len(p.Middle) + len(p.Back)
}

// Slots returns the slot ids of the given zone.
//
// Returns nil for ZoneAny or an unknown zone.
func (p ZonePartition) Slots(z Zone) []string {
	switch z {
	case ZoneFront:
		return p.Front
	case ZoneMiddle:
		return p.Middle
	case ZoneBack:
		return p.Back
	default:
		return nil
	}
}

// Ordered returns all slot ids in partition order: front, middle, back.
func (p ZonePartition) Ordered() []string {
	out := make([]string, 0, p.Len())
	out = append(out, p.Front...)
	out = append(out, p.Middle...)
	out = append(out, p.Back...)

	return out
}

// ZoneOf returns the zone containing id, or ZoneAny if id is not partitioned.
func (p ZonePartition) ZoneOf(id string) Zone {
	for _, z := range Zones {
		for _, s := range p.Slots(z) {
			if s == id {
				return z
			}
		}
	}

	return ZoneAny
}

// ZoneIndex maps every partitioned slot id to its zone.
func (p ZonePartition) ZoneIndex() map[string]Zone {
	idx := make(map[string]Zone, p.Len())
	for _, z := range Zones {
		for _, id := range p.Slots(z) {
			if _, ok := idx[id]; !ok {
				idx[id] = z
			}
		}
	}

	return idx
}

// Placement assigns the content of one item to one slot.
type Placement struct {
	// SlotID is the destination physical slot.
	SlotID string `json:"slotId"`

	// SourceSlotID is the slot whose item content moves to SlotID.
	// Equal to SlotID when the content stays in place.
	SourceSlotID string `json:"sourceSlotId"`

	// Category is the category of the placed item.
	Category Category `json:"category"`

	// Zone is the zone of the destination slot.
	Zone Zone `json:"zone"`

	// Metadata is the display payload to show at SlotID.
	Metadata DisplayMetadata `json:"metadata"`
}

// Moved reports whether the placement changes the content of its slot.
func (p Placement) Moved() bool {
	return p.SlotID != p.SourceSlotID
}

// LayoutAssignment is the content-swap mapping produced by a layout strategy.
//
// Placements are listed in partition order. Each slot id appears at most once and
// each item at most once. Slot coordinates are not part of the assignment.
type LayoutAssignment struct {
	// Placements maps destination slots to item content.
	Placements []Placement `json:"placements"`

	// Unplaced lists source slot ids of items that did not fit any slot.
	Unplaced []string `json:"unplaced,omitempty"`
}

// IdentityLayout returns the no-swap layout: every partitioned slot keeps its own content.
//
// Payloads are taken from items when present; slots without a matching item get
// empty metadata, which Apply treats as "leave unchanged".
func IdentityLayout(items []CategorizedSlot, zones ZonePartition) LayoutAssignment {
	byID := make(map[string]CategorizedSlot, len(items))
	for _, item := range items {
		byID[item.SlotID] = item
	}

	placements := make([]Placement, 0, zones.Len())
	emitted := make(map[string]struct{}, zones.Len())
	for _, z := range Zones {
		for _, id := range zones.Slots(z) {
			if _, dup := emitted[id]; dup {
				continue
			}
			emitted[id] = struct{}{}

			p := Placement{SlotID: id, SourceSlotID: id, Category: CategoryNormal, Zone: z}
			if item, ok := byID[id]; ok {
				p.Category = item.Category
				p.Metadata = item.Payload.Clone()
			}
			placements = append(placements, p)
		}
	}

	return LayoutAssignment{Placements: placements}
}

// Mapping returns the slot id to display metadata mapping.
func (l LayoutAssignment) Mapping() map[string]DisplayMetadata {
	out := make(map[string]DisplayMetadata, len(l.Placements))
	for _, p := range l.Placements {
		out[p.SlotID] = p.Metadata
	}

	return out
}

// Moves returns only the placements that change a slot's content.
func (l LayoutAssignment) Moves() []Placement {
	var out []Placement
	for _, p := range l.Placements {
		if p.Moved() {
			out = append(out, p)
		}
	}

	return out
}

// IsIdentity reports whether no slot changes content.
func (l LayoutAssignment) IsIdentity() bool {
	for _, p := range l.Placements {
		if p.Moved() {
			return false
		}
	}

	return true
}

// Fingerprint returns a stable 64-bit hash of the slot-to-source mapping and categories.
//
// Two layouts with the same placements in the same order share a fingerprint.
// Each field folds into the running hash, which seeds the next field.
func (l LayoutAssignment) Fingerprint() uint64 {
	var h uint64
	for _, p := range l.Placements {
		h = hash.Fold(h, p.SlotID, p.SourceSlotID, string(p.Category))
	}

	return hash.Fold(h, l.Unplaced...)
}

// Apply returns copies of slots with display metadata overwritten according to the layout.
//
// Coordinates are copied verbatim. Content for a moved placement is taken from the
// source slot in the given snapshot when present, falling back to the placement's
// own metadata. Slots absent from the layout keep their metadata.
//
// Parameters:
//   - slots: Current slot snapshot (not modified)
//
// Returns:
//   - []PhysicalSlot: New slots in the same order as the input
func (l LayoutAssignment) Apply(slots []PhysicalSlot) []PhysicalSlot {
	original := make(map[string]DisplayMetadata, len(slots))
	for _, s := range slots {
		original[s.SlotID] = s.Metadata
	}

	moves := make(map[string]Placement, len(l.Placements))
	for _, p := range l.Placements {
		if p.Moved() {
			moves[p.SlotID] = p
		}
	}

	out := make([]PhysicalSlot, len(slots))
	for i, s := range slots {
		out[i] = PhysicalSlot{SlotID: s.SlotID, X: s.X, Y: s.Y, Metadata: s.Metadata.Clone()}

		p, ok := moves[s.SlotID]
		if !ok {
			continue
		}
		if src, found := original[p.SourceSlotID]; found {
			out[i].Metadata = src.Clone()
		} else {
			out[i].Metadata = p.Metadata.Clone()
		}
	}

	return out
}
