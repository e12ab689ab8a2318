package testutil

import (
	"testing"

	"github.com/arloliu/slotwise/types"
)

// AssertLayoutInjective verifies that no slot receives more than one item and no
// item is placed more than once.
//
// Parameters:
//   - t: testing handle
//   - layout: layout under test
func AssertLayoutInjective(t testing.TB, layout types.LayoutAssignment) {
	t.Helper()

	slots := make(map[string]struct{}, len(layout.Placements))
	sources := make(map[string]struct{}, len(layout.Placements))
	for _, p := range layout.Placements {
		if _, ok := slots[p.SlotID]; ok {
			t.Fatalf("slot %s receives more than one item", p.SlotID)
		}
		slots[p.SlotID] = struct{}{}

		if _, ok := sources[p.SourceSlotID]; ok {
			t.Fatalf("item from %s placed more than once", p.SourceSlotID)
		}
		sources[p.SourceSlotID] = struct{}{}
	}

	for _, id := range layout.Unplaced {
		if _, ok := sources[id]; ok {
			t.Fatalf("item from %s is both placed and unplaced", id)
		}
	}
}

// AssertLayoutBijective verifies that every slot id in slotIDs receives exactly one
// item and that every item in itemIDs is used exactly once.
//
// Parameters:
//   - t: testing handle
//   - layout: layout under test
//   - slotIDs: all slot ids
//   - itemIDs: source slot ids of all items
func AssertLayoutBijective(t testing.TB, layout types.LayoutAssignment, slotIDs, itemIDs []string) {
	t.Helper()

	AssertLayoutInjective(t, layout)

	if len(layout.Unplaced) != 0 {
		t.Fatalf("expected no unplaced items, got %v", layout.Unplaced)
	}
	if len(layout.Placements) != len(slotIDs) {
		t.Fatalf("placement count (%d) does not equal slot count (%d)", len(layout.Placements), len(slotIDs))
	}

	dest := make(map[string]struct{}, len(layout.Placements))
	src := make(map[string]struct{}, len(layout.Placements))
	for _, p := range layout.Placements {
		dest[p.SlotID] = struct{}{}
		src[p.SourceSlotID] = struct{}{}
	}
	for _, id := range slotIDs {
		if _, ok := dest[id]; !ok {
			t.Fatalf("slot %s receives no item", id)
		}
	}
	for _, id := range itemIDs {
		if _, ok := src[id]; !ok {
			t.Fatalf("item from %s is never placed", id)
		}
	}
}

// AssertCoordinatesPreserved verifies that after has the same slots, in the same
// order and with the same coordinates, as before.
func AssertCoordinatesPreserved(t testing.TB, before, after []types.PhysicalSlot) {
	t.Helper()

	if len(before) != len(after) {
		t.Fatalf("slot count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		b, a := before[i], after[i]
		if b.SlotID != a.SlotID || b.X != a.X || b.Y != a.Y {
			t.Fatalf("slot %d changed: %s(%v,%v) -> %s(%v,%v)", i, b.SlotID, b.X, b.Y, a.SlotID, a.X, a.Y)
		}
	}
}

// AssertPlacedInZone verifies that the item from sourceSlotID landed in zone z.
func AssertPlacedInZone(t testing.TB, layout types.LayoutAssignment, sourceSlotID string, z types.Zone) {
	t.Helper()

	for _, p := range layout.Placements {
		if p.SourceSlotID != sourceSlotID {
			continue
		}
		if p.Zone != z {
			t.Fatalf("item from %s placed in %s (slot %s), want %s", sourceSlotID, p.Zone, p.SlotID, z)
		}

		return
	}

	t.Fatalf("item from %s not placed", sourceSlotID)
}
