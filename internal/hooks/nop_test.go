package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/arloliu/slotwise/types"
	"github.com/stretchr/testify/require"
)

func TestNewNop(t *testing.T) {
	hooks := NewNop()

	require.NotNil(t, hooks.OnLayoutChanged)
	require.NotNil(t, hooks.OnError)
}

func TestNopHooks_OnLayoutChanged(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	err := hooks.OnLayoutChanged(ctx, &types.Result{StoreID: "store-1"})
	require.NoError(t, err)

	err = hooks.OnLayoutChanged(ctx, nil)
	require.NoError(t, err)
}

func TestNopHooks_OnError(t *testing.T) {
	hooks := NewNop()
	ctx := context.Background()

	testErr := context.Canceled
	err := hooks.OnError(ctx, testErr)
	require.NoError(t, err)
}

func TestWithDefaults(t *testing.T) {
	t.Run("nil hooks", func(t *testing.T) {
		h := WithDefaults(nil)
		require.NotNil(t, h.OnLayoutChanged)
		require.NotNil(t, h.OnError)
	})

	t.Run("keeps user callbacks", func(t *testing.T) {
		sentinel := errors.New("boom")
		h := WithDefaults(&types.Hooks{
			OnError: func(context.Context, error) error { return sentinel },
		})

		require.NotNil(t, h.OnLayoutChanged)
		require.NoError(t, h.OnLayoutChanged(context.Background(), nil))
		require.ErrorIs(t, h.OnError(context.Background(), nil), sentinel)
	})
}
