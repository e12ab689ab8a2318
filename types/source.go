package types

import "context"

// EventSource supplies raw behavioral events for a time window.
//
// Implementations can query various backends:
//   - Static: fixed list for testing and batch jobs
//   - Simulated: seeded synthetic telemetry
//   - JetStream: events stream in NATS
//
// The pipeline receives the source as a parameter and never reaches into global state.
type EventSource interface {
	// ListEvents returns events observed within the window.
	//
	// Implementations may return events outside the window; the aggregator
	// filters them again.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - window: Time window to query
	//
	// Returns:
	//   - []Event: Events for the window
	//   - error: Query error (nil on success)
	ListEvents(ctx context.Context, window TimeRange) ([]Event, error)
}

// SlotSource supplies the current slot geometry snapshot.
//
// The returned list must be a consistent snapshot; callers treat it as read-only.
type SlotSource interface {
	// ListSlots returns all physical slots.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//
	// Returns:
	//   - []PhysicalSlot: Slots with stable ids, coordinates and current metadata
	//   - error: Query error (nil on success)
	ListSlots(ctx context.Context) ([]PhysicalSlot, error)
}
