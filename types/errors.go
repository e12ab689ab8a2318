package types

import (
	"errors"
	"strings"
)

// Sentinel errors for the slotwise library.
//
// The computational pipeline itself never returns errors; degenerate input
// resolves to zero metrics, the Normal category and the identity layout. These
// errors cover configuration and I/O at the source and publisher boundaries.
//
// Wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Configuration and lifecycle errors.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEventSourceRequired is returned when the event source is nil.
	ErrEventSourceRequired = errors.New("event source is required")

	// ErrSlotSourceRequired is returned when the slot source is nil.
	ErrSlotSourceRequired = errors.New("slot source is required")

	// ErrPipelineRequired is returned when a runner is created without a pipeline.
	ErrPipelineRequired = errors.New("pipeline is required")

	// ErrAlreadyStarted is returned when Start is called on a running runner.
	ErrAlreadyStarted = errors.New("runner already started")

	// ErrNotStarted is returned when Stop is called on a runner that is not running.
	ErrNotStarted = errors.New("runner not started")
)

// Source errors.
var (
	// ErrEventSource wraps failures reported by an EventSource.
	ErrEventSource = errors.New("event source failed")

	// ErrSlotSource wraps failures reported by a SlotSource.
	ErrSlotSource = errors.New("slot source failed")
)

// Publisher errors.
var (
	// ErrPublishFailed is returned when writing a layout to NATS KV fails.
	ErrPublishFailed = errors.New("failed to publish layout")

	// ErrLease wraps publisher lease coordination failures.
	ErrLease = errors.New("publisher lease failed")

	// ErrNotLeaseHolder is returned when releasing a lease that is not held.
	ErrNotLeaseHolder = errors.New("not the lease holder")
)

// Common errors.
var (
	// ErrNoKeysFound is returned when NATS KV returns no keys (expected condition).
	ErrNoKeysFound = errors.New("no keys found")
)

// IsNoKeysFoundError checks if an error indicates that no keys were found in NATS KV.
//
// This function handles NATS-specific "no keys found" errors which may come as:
//   - Direct error: "nats: no keys found"
//   - Wrapped error: "failed to list KV keys: nats: no keys found"
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error indicates no keys were found, false otherwise
func IsNoKeysFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoKeysFound) {
		return true
	}

	return strings.Contains(err.Error(), "no keys found")
}
