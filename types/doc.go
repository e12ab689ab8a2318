// Package types provides core type definitions and interfaces for the slotwise library.
//
// This package contains shared types that are used across multiple packages in the
// library. Keeping them in a separate package lets the stage packages (aggregate,
// categorize, zone, strategy) and the sources depend on the data model without
// depending on the root slotwise package.
//
// Key types:
//   - Event: Raw behavioral interaction event emitted for a slot
//   - SlotMetrics: Per-slot metrics derived from events in a time window
//   - CategorizedSlot: SlotMetrics plus behavioral category and target zone
//   - PhysicalSlot: Fixed display position with coordinates and display metadata
//   - ZonePartition: Front/Middle/Back split of slots by spatial order
//   - LayoutAssignment: Content-swap mapping from slot to display metadata
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
