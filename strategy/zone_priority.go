package strategy

import (
	"github.com/arloliu/slotwise/types"
)

// DefaultCategoryPriority is the order in which categories claim slots.
var DefaultCategoryPriority = []types.Category{
	types.CategoryRisk,
	types.CategoryAnchor,
	types.CategoryMagnet,
	types.CategoryDiscovery,
	types.CategoryNormal,
}

// DefaultFallbackOrder is the order in which zones are tried when the preferred zone is full.
var DefaultFallbackOrder = []types.Zone{types.ZoneMiddle, types.ZoneBack, types.ZoneFront}

// ZonePriority assigns item content to slots by category priority and zone preference.
//
// The algorithm is greedy and deterministic: identical input always produces an
// identical layout.
type ZonePriority struct {
	priority []types.Category
	fallback []types.Zone
}

var _ types.LayoutStrategy = (*ZonePriority)(nil)

// ZonePriorityOption configures a ZonePriority strategy.
type ZonePriorityOption func(*ZonePriority)

// NewZonePriority creates a new zone priority strategy.
//
// Parameters:
//   - opts: Optional configuration (WithFallbackOrder, WithCategoryPriority)
//
// Returns:
//   - *ZonePriority: Initialized strategy
//
// Example:
//
//	s := strategy.NewZonePriority(
//	    strategy.WithFallbackOrder(types.ZoneBack, types.ZoneMiddle, types.ZoneFront),
//	)
//	pipeline, _ := slotwise.NewPipeline(events, slots, slotwise.WithStrategy(s))
func NewZonePriority(opts ...ZonePriorityOption) *ZonePriority {
	zp := &ZonePriority{
		priority: DefaultCategoryPriority,
		fallback: DefaultFallbackOrder,
	}

	for _, opt := range opts {
		opt(zp)
	}

	return zp
}

// WithFallbackOrder sets the zones tried after an item's preferred zone is full.
//
// The preferred zone is skipped when it appears in the order. Invalid orders
// are ignored; use ValidateFallbackOrder to check user input.
//
// Parameters:
//   - zones: Zones in fallback order
//
// Returns:
//   - ZonePriorityOption: Configuration option
func WithFallbackOrder(zones ...types.Zone) ZonePriorityOption {
	return func(zp *ZonePriority) {
		if ValidateFallbackOrder(zones) == nil {
			zp.fallback = append([]types.Zone(nil), zones...)
		}
	}
}

// WithCategoryPriority sets the order in which categories claim slots.
//
// Categories omitted from the order are only placed by the leftover pass.
func WithCategoryPriority(categories ...types.Category) ZonePriorityOption {
	return func(zp *ZonePriority) {
		if len(categories) > 0 {
			zp.priority = append([]types.Category(nil), categories...)
		}
	}
}

// ValidateFallbackOrder checks that zones is a non-empty list of distinct concrete zones.
func ValidateFallbackOrder(zones []types.Zone) error {
	if len(zones) == 0 {
		return ErrInvalidFallbackOrder
	}

	seen := make(map[types.Zone]struct{}, len(zones))
	for _, z := range zones {
		if !z.Valid() {
			return ErrInvalidFallbackOrder
		}
		if _, dup := seen[z]; dup {
			return ErrInvalidFallbackOrder
		}
		seen[z] = struct{}{}
	}

	return nil
}

// assignState tracks slot and item usage during one Assign call.
type assignState struct {
	zones   types.ZonePartition
	zoneOf  map[string]types.Zone
	owner   map[string]int // slot id -> item index
	placed  []bool
	cursors map[types.Zone]int
}

// Assign computes the content-swap mapping.
//
// The output is injective: each slot receives at most one item and each item is
// placed at most once. When the number of items equals the number of slots every
// slot receives exactly one item. Items beyond capacity are listed in Unplaced.
// Empty items or an empty partition produce the identity layout.
//
// Parameters:
//   - items: Categorized slots with their payloads, in input order
//   - zones: Zone partition of the physical slots
//
// Returns:
//   - types.LayoutAssignment: Placements in partition order
func (zp *ZonePriority) Assign(items []types.CategorizedSlot, zones types.ZonePartition) types.LayoutAssignment {
	if len(items) == 0 || zones.Len() == 0 {
		return types.IdentityLayout(items, zones)
	}

	st := &assignState{
		zones:   zones,
		zoneOf:  zones.ZoneIndex(),
		owner:   make(map[string]int, zones.Len()),
		placed:  make([]bool, len(items)),
		cursors: make(map[types.Zone]int, len(types.Zones)),
	}

	for _, cat := range zp.priority {
		for i := range items {
			if items[i].Category != cat || st.placed[i] {
				continue
			}
			zp.placeItem(st, i, items[i])
		}
	}

	// Leftover pass: free slots in partition order take remaining items in input order.
	next := 0
	for _, id := range zones.Ordered() {
		if _, used := st.owner[id]; used {
			continue
		}
		for next < len(items) && st.placed[next] {
			next++
		}
		if next == len(items) {
			break
		}
		st.take(id, next)
	}

	layout := types.LayoutAssignment{Placements: make([]types.Placement, 0, len(st.owner))}
	emitted := make(map[string]struct{}, len(st.owner))
	for _, z := range types.Zones {
		for _, id := range zones.Slots(z) {
			i, ok := st.owner[id]
			if !ok {
				continue
			}
			// A repeated id in the partition is placed once.
			if _, dup := emitted[id]; dup {
				continue
			}
			emitted[id] = struct{}{}
			layout.Placements = append(layout.Placements, types.Placement{
				SlotID:       id,
				SourceSlotID: items[i].SlotID,
				Category:     items[i].Category,
				Zone:         z,
				Metadata:     items[i].Payload.Clone(),
			})
		}
	}
	for i, ok := range st.placed {
		if !ok {
			layout.Unplaced = append(layout.Unplaced, items[i].SlotID)
		}
	}

	return layout
}

func (zp *ZonePriority) placeItem(st *assignState, i int, item types.CategorizedSlot) {
	if !item.TargetZone.Valid() {
		// No preference: keep the own slot if it is still free.
		if _, ok := st.zoneOf[item.SlotID]; ok && st.free(item.SlotID) {
			st.take(item.SlotID, i)
		}

		return
	}

	if st.tryZone(item.TargetZone, item.SlotID, i) {
		return
	}
	for _, z := range zp.fallback {
		if z == item.TargetZone {
			continue
		}
		if st.tryZone(z, item.SlotID, i) {
			return
		}
	}
}

// tryZone places item i in zone z, preferring its own slot.
func (st *assignState) tryZone(z types.Zone, own string, i int) bool {
	if st.zoneOf[own] == z && st.free(own) {
		st.take(own, i)
		return true
	}

	// Slots before the cursor are all used, so the cursor only moves forward.
	slots := st.zones.Slots(z)
	c := st.cursors[z]
	for c < len(slots) && !st.free(slots[c]) {
		c++
	}
	st.cursors[z] = c
	if c == len(slots) {
		return false
	}
	st.take(slots[c], i)

	return true
}

func (st *assignState) free(id string) bool {
	_, used := st.owner[id]
	return !used
}

func (st *assignState) take(id string, i int) {
	st.owner[id] = i
	st.placed[i] = true
}
