package source

import (
	"context"
	"slices"
	"sync"

	"github.com/arloliu/slotwise/types"
)

// Static implements an event source with a fixed list of events.
type Static struct {
	mu     sync.RWMutex
	events []types.Event
}

var _ types.EventSource = (*Static)(nil)

// NewStatic creates a new static event source.
//
// Useful for testing, batch jobs and request handlers that already hold the
// event set in memory.
//
// Parameters:
//   - events: Initial events
//
// Returns:
//   - *Static: Initialized static source
//
// Example:
//
//	events := []types.Event{
//	    {SlotID: "slot-1", Type: types.EventPurchased, Timestamp: time.Now()},
//	}
//	pipeline, err := slotwise.NewPipeline(source.NewStatic(events), source.NewStaticSlots(slots))
//	if err != nil { /* handle */ }
func NewStatic(events []types.Event) *Static {
	return &Static{
		events: slices.Clone(events),
	}
}

// ListEvents returns the events that fall inside window, in insertion order.
//
// Returns:
//   - []types.Event: Matching events (a copy)
//   - error: Always nil (never fails)
func (s *Static) ListEvents(_ context.Context, window types.TimeRange) ([]types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]types.Event, 0, len(s.events))
	for _, ev := range s.events {
		if window.Contains(ev.Timestamp) {
			result = append(result, ev)
		}
	}

	return result, nil
}

// Append adds events to the source.
func (s *Static) Append(events ...types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, events...)
}

// Update replaces the event list.
//
// Parameters:
//   - events: New list of events
func (s *Static) Update(events []types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = slices.Clone(events)
}

// StaticSlots implements a slot source with a fixed slot snapshot.
type StaticSlots struct {
	mu    sync.RWMutex
	slots []types.PhysicalSlot
}

var _ types.SlotSource = (*StaticSlots)(nil)

// NewStaticSlots creates a new static slot source.
//
// Parameters:
//   - slots: Fixed slot snapshot
//
// Returns:
//   - *StaticSlots: Initialized static slot source
func NewStaticSlots(slots []types.PhysicalSlot) *StaticSlots {
	return &StaticSlots{slots: cloneSlots(slots)}
}

// ListSlots returns a copy of the slot snapshot.
func (s *StaticSlots) ListSlots(_ context.Context) ([]types.PhysicalSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneSlots(s.slots), nil
}

// Update replaces the slot snapshot, e.g. after applying a computed layout.
//
// Example:
//
//	result, _ := pipeline.Run(ctx, window)
//	slots, _ := src.ListSlots(ctx)
//	src.Update(result.Layout.Apply(slots))
func (s *StaticSlots) Update(slots []types.PhysicalSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = cloneSlots(slots)
}

func cloneSlots(slots []types.PhysicalSlot) []types.PhysicalSlot {
	out := make([]types.PhysicalSlot, len(slots))
	for i, s := range slots {
		out[i] = s
		out[i].Metadata = s.Metadata.Clone()
	}

	return out
}
