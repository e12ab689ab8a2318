package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("wrapped errors keep identity", func(t *testing.T) {
		wrapped := fmt.Errorf("%w: connection refused", ErrEventSource)
		require.ErrorIs(t, wrapped, ErrEventSource)
		require.NotErrorIs(t, wrapped, ErrSlotSource)
	})

	t.Run("all errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrInvalidConfig,
			ErrEventSourceRequired,
			ErrSlotSourceRequired,
			ErrPipelineRequired,
			ErrAlreadyStarted,
			ErrNotStarted,
			ErrEventSource,
			ErrSlotSource,
			ErrPublishFailed,
			ErrNoKeysFound,
		}

		for i, err1 := range allErrors {
			for j, err2 := range allErrors {
				if i == j {
					require.True(t, errors.Is(err1, err2), "error should equal itself: %v", err1)
				} else {
					require.False(t, errors.Is(err1, err2), "errors should be distinct: %v vs %v", err1, err2)
				}
			}
		}
	})
}

func TestIsNoKeysFoundError(t *testing.T) {
	t.Run("returns false for nil error", func(t *testing.T) {
		require.False(t, IsNoKeysFoundError(nil))
	})

	t.Run("returns true for sentinel ErrNoKeysFound", func(t *testing.T) {
		require.True(t, IsNoKeysFoundError(ErrNoKeysFound))
	})

	t.Run("returns true for wrapped ErrNoKeysFound", func(t *testing.T) {
		wrapped := errors.Join(ErrNoKeysFound, errors.New("additional context"))
		require.True(t, IsNoKeysFoundError(wrapped))
	})

	t.Run("returns true for NATS direct error message", func(t *testing.T) {
		require.True(t, IsNoKeysFoundError(errors.New("nats: no keys found")))
	})

	t.Run("returns true for wrapped NATS error message", func(t *testing.T) {
		require.True(t, IsNoKeysFoundError(errors.New("failed to list KV keys: nats: no keys found")))
	})

	t.Run("returns false for unrelated error", func(t *testing.T) {
		require.False(t, IsNoKeysFoundError(errors.New("some other error")))
		require.False(t, IsNoKeysFoundError(ErrInvalidConfig))
	})
}
