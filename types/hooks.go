package types

import "context"

// Hooks defines callbacks for Runner lifecycle events.
//
// All hooks are optional. Hooks receive the runner's lifecycle context, which is
// cancelled during shutdown. Hook errors are logged but never stop the runner.
//
// Example:
//
//	hooks := &slotwise.Hooks{
//	    OnLayoutChanged: func(ctx context.Context, result *slotwise.Result) error {
//	        for _, p := range result.Layout.Moves() {
//	            log.Printf("%s -> %s", p.SourceSlotID, p.SlotID)
//	        }
//	        return nil
//	    },
//	}
type Hooks struct {
	// OnLayoutChanged is called when a run produces a layout whose fingerprint
	// differs from the previous run.
	OnLayoutChanged func(ctx context.Context, result *Result) error

	// OnError is called when a run or publish fails.
	OnError func(ctx context.Context, err error) error
}
