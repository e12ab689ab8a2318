package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"
)

// EventType identifies the kind of behavioral interaction observed at a slot.
type EventType string

// Behavioral event types. Values match the wire names emitted by the tracking backend.
const (
	// EventWindowShopped is emitted when a shopper lingers in front of an item and leaves without touching it.
	EventWindowShopped EventType = "WINDOW_SHOPPED"

	// EventCartAbandoned is emitted when an item is picked up and later returned to its slot.
	EventCartAbandoned EventType = "CART_ABANDONED"

	// EventPurchased is emitted when an item is picked up and taken away.
	EventPurchased EventType = "PRODUCT_PURCHASED"

	// EventMoved is emitted when an item is displaced from its home position.
	EventMoved EventType = "MOVED"
)

// Valid reports whether t is one of the known behavioral event types.
func (t EventType) Valid() bool {
	switch t {
	case EventWindowShopped, EventCartAbandoned, EventPurchased, EventMoved:
		return true
	default:
		return false
	}
}

// Event is a single behavioral interaction recorded for a slot.
//
// Events are immutable and produced externally. DurationSeconds is optional;
// an absent value contributes nothing to dwell time.
type Event struct {
	// SlotID identifies the physical slot the interaction happened at.
	SlotID string `json:"slotId"`

	// ClassLabel is the detected item class at the time of the event (e.g., "water_bottle").
	ClassLabel string `json:"classLabel,omitempty"`

	// Type is the behavioral event type.
	Type EventType `json:"eventType"`

	// Timestamp is when the interaction was observed.
	Timestamp time.Time `json:"timestamp"`

	// DurationSeconds is how long the interaction persisted, if known.
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
}

// Duration returns the event duration in seconds and whether a usable value is present.
//
// Negative, NaN and infinite durations are treated as absent.
//
// Returns:
//   - float64: Duration in seconds (0 when absent)
//   - bool: true if the event carries a usable duration
func (e Event) Duration() (float64, bool) {
	if e.DurationSeconds == nil {
		return 0, false
	}

	d := *e.DurationSeconds
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, false
	}

	return d, true
}

// UnmarshalJSON decodes an event leniently.
//
// slotId is required. A malformed optional field falls back to its zero value
// instead of rejecting the event: classLabel becomes "", eventType becomes an
// unknown type, timestamp becomes zero and durationSeconds becomes absent.
// A numeric string is accepted for durationSeconds.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		SlotID          json.RawMessage `json:"slotId"`
		ClassLabel      json.RawMessage `json:"classLabel"`
		Type            json.RawMessage `json:"eventType"`
		Timestamp       json.RawMessage `json:"timestamp"`
		DurationSeconds json.RawMessage `json:"durationSeconds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var slotID string
	if err := json.Unmarshal(raw.SlotID, &slotID); err != nil || slotID == "" {
		return errors.New("event: slotId must be a non-empty string")
	}

	*e = Event{SlotID: slotID}
	_ = json.Unmarshal(raw.ClassLabel, &e.ClassLabel)
	_ = json.Unmarshal(raw.Type, &e.Type)
	if err := json.Unmarshal(raw.Timestamp, &e.Timestamp); err != nil {
		e.Timestamp = time.Time{}
	}
	e.DurationSeconds = decodeSeconds(raw.DurationSeconds)

	return nil
}

func decodeSeconds(raw json.RawMessage) *float64 {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil
	}

	return &v
}

// Seconds returns a pointer to v, convenient for building events with a duration.
func Seconds(v float64) *float64 {
	return &v
}

// TimeRange is a half-open time window [Start, End).
//
// A zero Start or End leaves that side of the window unbounded.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WindowEndingAt returns the window of length d that ends at t.
func WindowEndingAt(t time.Time, d time.Duration) TimeRange {
	return TimeRange{Start: t.Add(-d), End: t}
}

// Contains reports whether ts falls inside the window.
func (r TimeRange) Contains(ts time.Time) bool {
	if !r.Start.IsZero() && ts.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !ts.Before(r.End) {
		return false
	}

	return true
}

// IsUnbounded reports whether neither side of the window is set.
func (r TimeRange) IsUnbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}
