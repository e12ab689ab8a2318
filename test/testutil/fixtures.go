package testutil

import (
	"fmt"
	"time"

	"github.com/arloliu/slotwise/types"
)

// GridSlots creates rows*cols slots laid out on a unit grid.
//
// Slot ids are "slot-<row>-<col>" and row is the y coordinate. Every slot gets
// a distinct label so content moves are observable.
func GridSlots(rows, cols int) []types.PhysicalSlot {
	slots := make([]types.PhysicalSlot, 0, rows*cols)
	for r := range rows {
		for c := range cols {
			id := fmt.Sprintf("slot-%d-%d", r, c)
			slots = append(slots, types.PhysicalSlot{
				SlotID: id,
				X:      float64(c),
				Y:      float64(r),
				Metadata: types.DisplayMetadata{
					Label:    "item@" + id,
					ItemType: "generic",
				},
			})
		}
	}

	return slots
}

// RepeatEvents returns n events of one type for a slot, one second apart starting at start.
//
// dwell may be nil for events without a duration.
func RepeatEvents(slotID string, typ types.EventType, n int, start time.Time, dwell *float64) []types.Event {
	events := make([]types.Event, n)
	for i := range events {
		events[i] = types.Event{
			SlotID:          slotID,
			Type:            typ,
			Timestamp:       start.Add(time.Duration(i) * time.Second),
			DurationSeconds: dwell,
		}
	}

	return events
}
