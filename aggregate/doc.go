// Package aggregate turns raw behavioral events into per-slot metrics.
//
// Aggregation is the first stage of the layout pipeline. It is pure and never
// fails: events outside the time window, events with an unknown type and events
// for slots outside the seeded slot set are skipped and only counted in
// types.AggregateStats.
//
// Seeding the aggregator with the full physical slot list guarantees that every
// slot appears in the output, including slots without activity:
//
//	agg := aggregate.New(aggregate.WithLogger(logger))
//	metrics, stats := agg.Aggregate(events, window, types.SlotIDs(slots))
package aggregate
