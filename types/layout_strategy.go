package types

// LayoutStrategy computes a content-swap layout from categorized items and zones.
//
// Strategy implementations should:
//   - Be deterministic (same input, including order, gives the same output)
//   - Never fail; degrade to the identity layout on degenerate input
//   - Be stateless (no side effects)
//   - Never assign two items to one slot
type LayoutStrategy interface {
	// Assign calculates the layout.
	//
	// Parameters:
	//   - items: Categorized items in input order; each item currently sits at its SlotID
	//   - zones: Zone partition of the physical slots
	//
	// Returns:
	//   - LayoutAssignment: Placements of item content onto slots
	Assign(items []CategorizedSlot, zones ZonePartition) LayoutAssignment
}
