package testing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "INFO: run done slots=6 moves=2", format("INFO", "run done", []any{"slots", 6, "moves", 2}))
	require.Equal(t, "WARN: odd key=<missing>", format("WARN", "odd", []any{"key"}))
	require.Equal(t, "DEBUG: bare", format("DEBUG", "bare", nil))
}
