package source

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	slotwisetest "github.com/arloliu/slotwise/testing"
	"github.com/arloliu/slotwise/types"
)

func TestEventSubject(t *testing.T) {
	tests := []struct {
		slot string
		want string
	}{
		{"slot-1", "slotwise.events.slot-1"},
		{"aisle.3", "slotwise.events.aisle_3"},
		{"a b*c>", "slotwise.events.a_b_c_"},
		{"", "slotwise.events._"},
	}

	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			require.Equal(t, tt.want, EventSubject(DefaultEventSubjectPrefix, tt.slot))
		})
	}
}

func TestJetStream_ListEvents(t *testing.T) {
	_, nc := slotwisetest.StartEmbeddedNATS(t)
	slotwisetest.CreateEventStream(t, nc, "SLOT_EVENTS", DefaultEventSubjectPrefix+".>")

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	published := []types.Event{
		{SlotID: "s1", Type: types.EventPurchased, Timestamp: base, DurationSeconds: types.Seconds(12)},
		{SlotID: "s2", Type: types.EventCartAbandoned, Timestamp: base.Add(time.Minute)},
		{SlotID: "s1", Type: types.EventMoved, Timestamp: base.Add(2 * time.Minute), ClassLabel: "cup"},
	}
	for _, ev := range published {
		require.NoError(t, PublishEvent(ctx, js, "", ev))
	}
	// noise on a foreign subject inside the same stream
	_, err = js.Publish(ctx, DefaultEventSubjectPrefix+".s3", []byte("not json"))
	require.NoError(t, err)

	src := NewJetStream(js, "SLOT_EVENTS", WithFetchBatch(2, 200*time.Millisecond))

	t.Run("unbounded window returns everything decodable", func(t *testing.T) {
		events, err := src.ListEvents(ctx, types.TimeRange{})
		require.NoError(t, err)
		require.Len(t, events, 3)
		require.Equal(t, "s1", events[0].SlotID)
		require.True(t, events[0].Timestamp.Equal(base))
		d, ok := events[0].Duration()
		require.True(t, ok)
		require.InDelta(t, 12.0, d, 1e-9)
		require.Equal(t, "cup", events[2].ClassLabel)
	})

	t.Run("window end filters by event time", func(t *testing.T) {
		events, err := src.ListEvents(ctx, types.TimeRange{End: base.Add(90 * time.Second)})
		require.NoError(t, err)
		require.Len(t, events, 2)
	})

	t.Run("window start after all messages", func(t *testing.T) {
		events, err := src.ListEvents(ctx, types.TimeRange{Start: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		require.Empty(t, events)
	})
}

func TestJetStream_MalformedOptionalFields(t *testing.T) {
	_, nc := slotwisetest.StartEmbeddedNATS(t)
	slotwisetest.CreateEventStream(t, nc, "LENIENT_EVENTS", DefaultEventSubjectPrefix+".>")

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payloads := []string{
		`{"slotId":"s1","eventType":"PRODUCT_PURCHASED","timestamp":"2025-06-01T10:00:00Z","durationSeconds":"12"}`,
		`{"slotId":"s2","eventType":"CART_ABANDONED","timestamp":"2025-06-01T10:01:00Z","durationSeconds":{"v":1},"classLabel":7}`,
		`{"slotId":"s3","eventType":"MOVED","timestamp":"yesterday"}`,
		`{"eventType":"MOVED"}`,
	}
	for i, payload := range payloads {
		_, err := js.Publish(ctx, EventSubject(DefaultEventSubjectPrefix, fmt.Sprintf("s%d", i+1)), []byte(payload))
		require.NoError(t, err)
	}

	events, err := NewJetStream(js, "LENIENT_EVENTS").ListEvents(ctx, types.TimeRange{})
	require.NoError(t, err)
	require.Len(t, events, 3, "only the event without a slot id is dropped")

	d, ok := events[0].Duration()
	require.True(t, ok)
	require.InDelta(t, 12.0, d, 1e-9)

	_, ok = events[1].Duration()
	require.False(t, ok)
	require.Empty(t, events[1].ClassLabel)
	require.Equal(t, types.EventCartAbandoned, events[1].Type)

	// Unparseable timestamps fall back to the stream timestamp.
	require.Equal(t, "s3", events[2].SlotID)
	require.False(t, events[2].Timestamp.IsZero())
}

func TestJetStream_EmptyStream(t *testing.T) {
	_, nc := slotwisetest.StartEmbeddedNATS(t)
	slotwisetest.CreateEventStream(t, nc, "EMPTY_EVENTS", DefaultEventSubjectPrefix+".>")

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	events, err := NewJetStream(js, "EMPTY_EVENTS").ListEvents(context.Background(), types.TimeRange{})
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestJetStream_MissingStream(t *testing.T) {
	_, nc := slotwisetest.StartEmbeddedNATS(t)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	_, err = NewJetStream(js, "NOPE").ListEvents(context.Background(), types.TimeRange{})
	require.ErrorIs(t, err, jetstream.ErrStreamNotFound)
}
