// Package slotwise computes behavior-driven content layouts for a physical retail display.
//
// Raw shopper interaction events (window shopping, abandoned carts, purchases and
// displacements) are folded into per-slot metrics, each slot's item is classified into a
// behavioral category, the physical slots are split into Front, Middle and Back zones by
// distance from the entrance, and item content is reassigned to slots so that each
// category lands in its preferred zone. Slot coordinates never change; only the content
// shown at each slot moves.
//
// # Quick Start
//
// One-shot computation over in-memory data:
//
//	import "github.com/arloliu/slotwise"
//
//	result := slotwise.Compute(events, slots, slotwise.TimeRange{})
//	for _, p := range result.Layout.Moves() {
//	    fmt.Printf("%s now shows %s\n", p.SlotID, p.Metadata.Label)
//	}
//
// # Pipeline
//
// A Pipeline pulls a snapshot from an EventSource and a SlotSource and runs the four stages:
//
//	aggregate → categorize → zone partition → layout assignment
//
// The stages are pure functions of their input. They never fail; missing or degenerate
// data resolves to zero metrics, the Normal category and the identity layout. Only the
// sources can return errors.
//
//	pipeline, err := slotwise.NewPipeline(eventSource, slotSource,
//	    slotwise.WithLogger(logger),
//	    slotwise.WithStrategy(strategy.NewZonePriority()),
//	)
//	result, err := pipeline.Run(ctx, slotwise.WindowEndingAt(time.Now(), 15*time.Minute))
//
// # Runner
//
// A Runner re-runs the pipeline on a fixed cadence over a sliding window, fans results
// out to subscribers and publishes changed layouts to NATS KV:
//
//	cfg := slotwise.DefaultConfig()
//	runner, err := slotwise.NewRunner(&cfg, pipeline,
//	    slotwise.WithPublisher(publisher),
//	    slotwise.WithHooks(&slotwise.Hooks{
//	        OnLayoutChanged: func(ctx context.Context, r *slotwise.Result) error {
//	            return display.Apply(r.Layout)
//	        },
//	    }),
//	)
//	if err := runner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Stop(context.Background())
//
// See the examples/ directory for complete working examples.
package slotwise
