package strategy

import "github.com/arloliu/slotwise/types"

// Identity keeps every item in its own slot.
type Identity struct{}

var _ types.LayoutStrategy = (*Identity)(nil)

// NewIdentity creates the no-swap strategy.
func NewIdentity() *Identity {
	return &Identity{}
}

// Assign returns the identity layout. Items whose own slot is not partitioned
// are reported as unplaced.
func (*Identity) Assign(items []types.CategorizedSlot, zones types.ZonePartition) types.LayoutAssignment {
	layout := types.IdentityLayout(items, zones)

	idx := zones.ZoneIndex()
	for _, item := range items {
		if _, ok := idx[item.SlotID]; !ok {
			layout.Unplaced = append(layout.Unplaced, item.SlotID)
		}
	}

	return layout
}
