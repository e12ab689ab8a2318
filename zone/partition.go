// Package zone splits physical slots into Front, Middle and Back zones.
//
// Slots are ordered by depth (y ascending) and then by x ascending, which stands
// in for distance from the entrance. The first third (rounded up) is Front, the
// last third (from floor(2n/3)) is Back and the remainder is Middle.
package zone

import (
	"cmp"
	"slices"

	"github.com/arloliu/slotwise/types"
)

// Sizes returns the zone sizes for n slots.
//
// Back never overlaps Front; for n = 1 the single slot is Front.
//
// Parameters:
//   - n: Number of slots
//
// Returns:
//   - front, middle, back: Zone sizes summing to n
func Sizes(n int) (front, middle, back int) {
	if n <= 0 {
		return 0, 0, 0
	}

	front = (n + 2) / 3
	backStart := max(2*n/3, front)

	return front, backStart - front, n - backStart
}

// Sort returns the slots in spatial order without modifying the input.
//
// Ties on (y, x) keep input order.
func Sort(slots []types.PhysicalSlot) []types.PhysicalSlot {
	sorted := slices.Clone(slots)
	slices.SortStableFunc(sorted, func(a, b types.PhysicalSlot) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}

		return cmp.Compare(a.X, b.X)
	})

	return sorted
}

// Partition splits slots into zones.
//
// The result is deterministic for a given slot list. An empty input yields an
// empty partition, which downstream stages treat as "no assignment". A slot id
// listed more than once is partitioned at its first occurrence only.
//
// Example:
//
//	zones := zone.Partition(slots)
//	for _, id := range zones.Front {
//	    fmt.Println("front:", id)
//	}
func Partition(slots []types.PhysicalSlot) types.ZonePartition {
	sorted := Sort(Unique(slots))
	n := len(sorted)
	if n == 0 {
		return types.ZonePartition{}
	}

	front, middle, _ := Sizes(n)

	ids := types.SlotIDs(sorted)

	return types.ZonePartition{
		Front:  ids[:front:front],
		Middle: ids[front : front+middle : front+middle],
		Back:   ids[front+middle:],
	}
}

// Unique drops repeated slot ids, keeping the first occurrence.
//
// The input is returned as is when every id is distinct.
func Unique(slots []types.PhysicalSlot) []types.PhysicalSlot {
	seen := make(map[string]struct{}, len(slots))
	for i, s := range slots {
		if _, dup := seen[s.SlotID]; dup {
			return uniqueFrom(slots, i, seen)
		}
		seen[s.SlotID] = struct{}{}
	}

	return slots
}

func uniqueFrom(slots []types.PhysicalSlot, first int, seen map[string]struct{}) []types.PhysicalSlot {
	out := slices.Clone(slots[:first])
	for _, s := range slots[first+1:] {
		if _, dup := seen[s.SlotID]; dup {
			continue
		}
		seen[s.SlotID] = struct{}{}
		out = append(out, s)
	}

	return out
}
