package testing

import (
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/internal/natsutil"
)

// StartEmbeddedNATS starts an in-process NATS server with JetStream for a test.
//
// JetStream data lives in t.TempDir() and the server binds a random port, so
// tests can run in parallel. The connection and server are closed by t.Cleanup.
//
// Parameters:
//   - t: Testing context for failures and cleanup
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected client (closed automatically)
//
// Example:
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := slotwisetest.StartEmbeddedNATS(t)
//	    kv := slotwisetest.CreateJetStreamKV(t, nc, "slot-geometry")
//	}
func StartEmbeddedNATS(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	ns, nc, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{
		StoreDir:     t.TempDir(),
		ReadyTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to start embedded NATS server: %v", err)
	}

	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, nc
}

// CreateJetStreamKV creates a JetStream KV bucket for testing using the new JetStream API.
//
// This is a convenience wrapper for creating KV buckets with sensible defaults
// for testing purposes. Uses the new jetstream.KeyValue interface.
//
// Parameters:
//   - t: Testing context
//   - nc: NATS connection (from StartEmbeddedNATS)
//   - bucketName: Name of the KV bucket to create
//
// Returns:
//   - jetstream.KeyValue: The created KV bucket interface
//
// Example:
//
//	func TestKVSlots(t *testing.T) {
//	    _, nc := slotwisetest.StartEmbeddedNATS(t)
//	    kv := slotwisetest.CreateJetStreamKV(t, nc, "slot-geometry")
//	    // Use kv for testing
//	}
func CreateJetStreamKV(t *testing.T, nc *nats.Conn, bucketName string) jetstream.KeyValue {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}

	ctx := t.Context()
	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Test KV bucket: %s", bucketName),
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
	})
	if err != nil {
		t.Fatalf("Failed to create KV bucket %s: %v", bucketName, err)
	}

	return kv
}

// CreateEventStream creates a memory-backed JetStream stream for behavioral events.
//
// Parameters:
//   - t: Testing context
//   - nc: NATS connection (from StartEmbeddedNATS)
//   - name: Stream name
//   - subjects: Subjects captured by the stream (e.g., "slotwise.events.>")
//
// Returns:
//   - jetstream.Stream: The created stream
//
// Example:
//
//	_, nc := slotwisetest.StartEmbeddedNATS(t)
//	slotwisetest.CreateEventStream(t, nc, "SLOT_EVENTS", "slotwise.events.>")
func CreateEventStream(t *testing.T, nc *nats.Conn, name string, subjects ...string) jetstream.Stream {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}

	stream, err := js.CreateStream(t.Context(), jetstream.StreamConfig{
		Name:        name,
		Description: fmt.Sprintf("Test event stream: %s", name),
		Subjects:    subjects,
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
	})
	if err != nil {
		t.Fatalf("Failed to create stream %s: %v", name, err)
	}

	return stream
}
