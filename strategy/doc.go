// Package strategy provides built-in layout strategy implementations.
//
// Layout strategies decide which item content is shown at which physical slot.
// Slot coordinates are never part of a strategy's output; only the content
// mapping is.
//
//   - ZonePriority: Greedy zone-constrained assignment by category priority (default)
//   - Identity: Keeps every item in its own slot (dry runs, baselines)
//
// # ZonePriority
//
// Items are processed by category in the order Risk, Anchor, Magnet, Discovery,
// Normal, and in input order within a category. An item with a preferred zone
// takes its own slot when that slot lies in the zone and is free, otherwise the
// next free slot of the zone in spatial order. A full zone falls back through the
// fallback order (Middle, Back, Front by default). Normal items keep their own
// slot when it is free. Remaining free slots are filled with the remaining items
// in input order.
//
// Custom strategies can be implemented by satisfying the types.LayoutStrategy interface.
package strategy
