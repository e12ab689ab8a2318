package kvutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	slotwisetest "github.com/arloliu/slotwise/testing"
)

// TestEnsureKVBucketWithRetry_Concurrent verifies that concurrent creators of the
// same bucket all succeed and share one bucket.
func TestEnsureKVBucketWithRetry_Concurrent(t *testing.T) {
	_, nc := slotwisetest.StartEmbeddedNATS(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	const numCallers = 5
	cfg := jetstream.KeyValueConfig{Bucket: "test-concurrent-layouts", History: 1}

	var wg sync.WaitGroup
	errs := make(chan error, numCallers)
	kvs := make([]jetstream.KeyValue, numCallers)
	for i := range numCallers {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			kv, err := EnsureKVBucketWithRetry(ctx, js, cfg, 3)
			if err != nil {
				errs <- err
				return
			}
			kvs[idx] = kv
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	_, err = kvs[0].Put(ctx, "layout.store-1", []byte("v1"))
	require.NoError(t, err)

	for _, kv := range kvs {
		require.NotNil(t, kv)
		entry, err := kv.Get(ctx, "layout.store-1")
		require.NoError(t, err)
		require.Equal(t, []byte("v1"), entry.Value())
	}
}

func TestEnsureKVBucketWithRetry_CancelledContext(t *testing.T) {
	_, nc := slotwisetest.StartEmbeddedNATS(t)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{Bucket: "never-created"}, 3)
	require.Error(t, err)
}

func TestEnsureStreamWithRetry(t *testing.T) {
	_, nc := slotwisetest.StartEmbeddedNATS(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	cfg := jetstream.StreamConfig{
		Name:     "SLOT_EVENTS",
		Subjects: []string{"slotwise.events.>"},
		Storage:  jetstream.MemoryStorage,
	}

	stream, err := EnsureStreamWithRetry(ctx, js, cfg, 3)
	require.NoError(t, err)
	require.Equal(t, "SLOT_EVENTS", stream.CachedInfo().Config.Name)

	// second call is idempotent
	again, err := EnsureStreamWithRetry(ctx, js, cfg, 0)
	require.NoError(t, err)
	require.Equal(t, stream.CachedInfo().Config.Subjects, again.CachedInfo().Config.Subjects)
}
