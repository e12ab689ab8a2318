package heartbeat

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	slotwisetest "github.com/arloliu/slotwise/testing"
	"github.com/arloliu/slotwise/types"
)

func staticStatus(runs uint64) StatusFunc {
	return func() types.RunnerStatus {
		return types.RunnerStatus{Runs: runs, Fingerprint: "00ff", LeaseHolder: true}
	}
}

func readStatus(t *testing.T, kv jetstream.KeyValue, key string) types.RunnerStatus {
	t.Helper()

	entry, err := kv.Get(t.Context(), key)
	require.NoError(t, err)

	var status types.RunnerStatus
	require.NoError(t, json.Unmarshal(entry.Value(), &status))

	return status
}

func TestPublisher_Start(t *testing.T) {
	t.Run("publishes status immediately", func(t *testing.T) {
		ctx := t.Context()

		_, nc := slotwisetest.StartEmbeddedNATS(t)
		kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-start-1")

		publisher := New(kv, "store-1", "replica-a", time.Hour, staticStatus(4), nil)
		require.Equal(t, "status.store-1.replica-a", publisher.Key())

		require.NoError(t, publisher.Start(ctx))
		require.True(t, publisher.IsStarted())

		status := readStatus(t, kv, publisher.Key())
		require.Equal(t, "replica-a", status.InstanceID)
		require.Equal(t, "store-1", status.StoreID)
		require.Equal(t, uint64(4), status.Runs)
		require.True(t, status.LeaseHolder)
		require.False(t, status.ReportedAt.IsZero())

		require.NoError(t, publisher.Stop())
	})

	t.Run("requires instance id", func(t *testing.T) {
		_, nc := slotwisetest.StartEmbeddedNATS(t)
		kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-start-2")

		publisher := New(kv, "store-1", "", time.Second, staticStatus(0), nil)
		require.ErrorIs(t, publisher.Start(t.Context()), ErrNoInstanceID)
		require.False(t, publisher.IsStarted())
	})

	t.Run("requires status function", func(t *testing.T) {
		_, nc := slotwisetest.StartEmbeddedNATS(t)
		kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-start-3")

		publisher := New(kv, "store-1", "replica-a", time.Second, nil, nil)
		require.ErrorIs(t, publisher.Start(t.Context()), ErrNoStatus)
	})

	t.Run("returns error if already started", func(t *testing.T) {
		ctx := t.Context()

		_, nc := slotwisetest.StartEmbeddedNATS(t)
		kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-start-4")

		publisher := New(kv, "store-1", "replica-a", time.Second, staticStatus(0), nil)
		require.NoError(t, publisher.Start(ctx))
		require.ErrorIs(t, publisher.Start(ctx), ErrAlreadyStarted)
		require.NoError(t, publisher.Stop())
	})
}

func TestPublisher_Stop(t *testing.T) {
	t.Run("deletes the status record", func(t *testing.T) {
		ctx := t.Context()

		_, nc := slotwisetest.StartEmbeddedNATS(t)
		kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-stop-1")

		publisher := New(kv, "store-1", "replica-a", time.Second, staticStatus(0), nil)
		require.NoError(t, publisher.Start(ctx))
		require.NoError(t, publisher.Stop())
		require.False(t, publisher.IsStarted())

		_, err := kv.Get(ctx, publisher.Key())
		require.ErrorIs(t, err, jetstream.ErrKeyNotFound)
	})

	t.Run("returns error if not started", func(t *testing.T) {
		_, nc := slotwisetest.StartEmbeddedNATS(t)
		kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-stop-2")

		publisher := New(kv, "store-1", "replica-a", time.Second, staticStatus(0), nil)
		require.ErrorIs(t, publisher.Stop(), ErrNotStarted)
	})

	t.Run("can restart after stop", func(t *testing.T) {
		ctx := t.Context()

		_, nc := slotwisetest.StartEmbeddedNATS(t)
		kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-stop-3")

		publisher := New(kv, "store-1", "replica-a", time.Second, staticStatus(0), nil)
		require.NoError(t, publisher.Start(ctx))
		require.NoError(t, publisher.Stop())
		require.NoError(t, publisher.Start(ctx))
		require.NoError(t, publisher.Stop())
	})
}

func TestPublisher_PeriodicStatus(t *testing.T) {
	ctx := t.Context()

	_, nc := slotwisetest.StartEmbeddedNATS(t)
	kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-periodic")

	var runs atomic.Uint64
	publisher := New(kv, "store-1", "replica-a", 50*time.Millisecond, func() types.RunnerStatus {
		return types.RunnerStatus{Runs: runs.Load()}
	}, nil)

	require.NoError(t, publisher.Start(ctx))
	defer func() { _ = publisher.Stop() }()

	runs.Store(9)
	require.Eventually(t, func() bool {
		return readStatus(t, kv, publisher.Key()).Runs == 9
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPublisher_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping TTL test in short mode")
	}

	ctx := t.Context()

	_, nc := slotwisetest.StartEmbeddedNATS(t)
	js, err := jetstream.New(nc)
	require.NoError(t, err)

	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  "test-status-ttl",
		TTL:     time.Second,
		Storage: jetstream.MemoryStorage,
	})
	require.NoError(t, err)

	// Interval longer than the TTL: the record expires between publishes.
	publisher := New(kv, "store-1", "replica-a", time.Hour, staticStatus(0), nil)
	require.NoError(t, publisher.Start(ctx))
	defer func() { _ = publisher.Stop() }()

	require.Eventually(t, func() bool {
		_, err := kv.Get(ctx, publisher.Key())
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestPublisher_MultipleInstances(t *testing.T) {
	ctx := t.Context()

	_, nc := slotwisetest.StartEmbeddedNATS(t)
	kv := slotwisetest.CreateJetStreamKV(t, nc, "test-status-multiple")

	publishers := make([]*Publisher, 3)
	for i := range publishers {
		publishers[i] = New(kv, "store-1", fmt.Sprintf("replica-%d", i), time.Second, staticStatus(uint64(i)), nil)
		require.NoError(t, publishers[i].Start(ctx))
	}

	for i, p := range publishers {
		require.Equal(t, uint64(i), readStatus(t, kv, p.Key()).Runs)
	}

	for _, p := range publishers {
		require.NoError(t, p.Stop())
	}
}
