package strategy

import (
	"fmt"

	"github.com/arloliu/slotwise/types"
)

// Strategy names accepted by New.
const (
	NameZonePriority = "zone_priority"
	NameIdentity     = "identity"
)

// New creates a strategy by name.
//
// Parameters:
//   - name: NameZonePriority or NameIdentity ("" selects NameZonePriority)
//   - fallback: Zone fallback order for NameZonePriority (nil for default)
//
// Returns:
//   - types.LayoutStrategy: The strategy
//   - error: ErrUnknownStrategy or ErrInvalidFallbackOrder
func New(name string, fallback []types.Zone) (types.LayoutStrategy, error) {
	switch name {
	case "", NameZonePriority:
		if fallback == nil {
			return NewZonePriority(), nil
		}
		if err := ValidateFallbackOrder(fallback); err != nil {
			return nil, fmt.Errorf("%w: %v", err, fallback)
		}

		return NewZonePriority(WithFallbackOrder(fallback...)), nil
	case NameIdentity:
		return NewIdentity(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
