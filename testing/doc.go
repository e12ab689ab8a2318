// Package testing provides test utilities for the slotwise library.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for testing the JetStream event source, the KV slot
// source and the layout publisher. It follows Go's convention of providing
// testing utilities in a dedicated package (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - CreateEventStream: Convenience wrapper for event stream creation
//   - NewTestLogger: types.Logger writing to the test log
//
// Example usage:
//
//	import (
//	    "testing"
//	    slotwisetest "github.com/arloliu/slotwise/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := slotwisetest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
