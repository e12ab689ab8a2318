// Package source provides built-in event and slot source implementations.
//
// Event sources supply raw behavioral events for a time window; slot sources
// supply the physical slot snapshot. The package includes:
//
//   - Static: Fixed list of events
//   - StaticSlots: Fixed list of physical slots
//   - Simulated: Deterministic synthetic telemetry for demos and load tests
//   - JetStream: Events read from a NATS JetStream stream by time window
//   - KVSlots: Slot geometry stored as JSON in a NATS KV bucket
//
// Custom sources can be implemented by satisfying the types.EventSource and
// types.SlotSource interfaces.
package source
