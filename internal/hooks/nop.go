package hooks

import (
	"context"

	"github.com/arloliu/slotwise/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, *types.Result) error = (*NopHooks)(nil).OnLayoutChanged
	_ func(context.Context, error) error         = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}
	return types.Hooks{
		OnLayoutChanged: h.OnLayoutChanged,
		OnError:         h.OnError,
	}
}

// WithDefaults returns a copy of h where every nil callback is replaced by a no-op.
//
// A nil h yields NewNop().
func WithDefaults(h *types.Hooks) types.Hooks {
	nop := NewNop()
	if h == nil {
		return nop
	}

	out := *h
	if out.OnLayoutChanged == nil {
		out.OnLayoutChanged = nop.OnLayoutChanged
	}
	if out.OnError == nil {
		out.OnError = nop.OnError
	}

	return out
}

// OnLayoutChanged is a no-op implementation.
func (h *NopHooks) OnLayoutChanged(ctx context.Context, result *types.Result) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(ctx context.Context, err error) error {
	return nil
}
