package stress_test

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/arloliu/slotwise/source"
	"github.com/arloliu/slotwise/test/testutil"
	"github.com/arloliu/slotwise/types"
)

// requireStressEnabled skips the test unless long stress tests are explicitly enabled.
//
// Enable by setting environment variable SLOTWISE_STRESS=1 when invoking `go test`.
// Example:
//
//	SLOTWISE_STRESS=1 go test -v -timeout 20m ./test/stress
func requireStressEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("SLOTWISE_STRESS") != "1" {
		t.Skip("Skipping long stress/perf test (set SLOTWISE_STRESS=1 to run)")
	}
}

// storeLoad is a synthetic store: a slot grid and one window of simulated events.
type storeLoad struct {
	slots  []types.PhysicalSlot
	events []types.Event
	window types.TimeRange
}

func newStoreLoad(t testing.TB, rows, cols, eventsPerSlot int) storeLoad {
	t.Helper()

	end := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	window := types.WindowEndingAt(end, time.Hour)
	slots := testutil.GridSlots(rows, cols)

	sim := source.NewSimulated(types.SlotIDs(slots),
		source.WithSeed(99),
		source.WithEventsPerSlot(eventsPerSlot),
	)
	events, err := sim.ListEvents(t.Context(), window)
	if err != nil {
		t.Fatalf("failed to generate events: %v", err)
	}

	return storeLoad{slots: slots, events: events, window: window}
}

// heapDelta runs fn and returns the heap growth in bytes after a GC.
func heapDelta(fn func()) int64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	fn()

	runtime.GC()
	runtime.ReadMemStats(&after)

	return int64(after.HeapAlloc) - int64(before.HeapAlloc)
}
