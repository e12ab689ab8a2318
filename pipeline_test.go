package slotwise

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/slotwise/categorize"
	"github.com/arloliu/slotwise/source"
	"github.com/arloliu/slotwise/strategy"
	"github.com/arloliu/slotwise/test/testutil"
	slotwisetest "github.com/arloliu/slotwise/testing"
	"github.com/arloliu/slotwise/types"
)

var baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// sixSlotScenario builds a 3x2 grid (2 Front, 2 Middle, 2 Back) where the item at
// slot-0-0 dwells 130s against an 80s average and the item at slot-2-1 is abandoned
// 70% of the time against a 40% average. No item is ever purchased.
func sixSlotScenario() ([]types.Event, []types.PhysicalSlot) {
	slots := testutil.GridSlots(3, 2)

	var events []types.Event
	for _, s := range slots {
		dwell := types.Seconds(70)
		abandons, shopped := 17, 33
		switch s.SlotID {
		case "slot-0-0":
			dwell = types.Seconds(130)
		case "slot-2-1":
			abandons, shopped = 7, 3
		}
		events = append(events, testutil.RepeatEvents(s.SlotID, types.EventCartAbandoned, abandons, baseTime, dwell)...)
		events = append(events, testutil.RepeatEvents(s.SlotID, types.EventWindowShopped, shopped, baseTime, dwell)...)
	}

	return events, slots
}

func fixedClock() time.Time { return baseTime.Add(time.Hour) }

func newStaticPipeline(t *testing.T, events []types.Event, slots []types.PhysicalSlot, opts ...Option) *Pipeline {
	t.Helper()

	opts = append([]Option{WithClock(fixedClock), WithLogger(slotwisetest.NewTestLogger(t))}, opts...)
	p, err := NewPipeline(source.NewStatic(events), source.NewStaticSlots(slots), opts...)
	require.NoError(t, err)

	return p
}

func TestNewPipeline(t *testing.T) {
	events := source.NewStatic(nil)
	slots := source.NewStaticSlots(nil)

	t.Run("requires event source", func(t *testing.T) {
		_, err := NewPipeline(nil, slots)
		require.ErrorIs(t, err, ErrEventSourceRequired)
	})

	t.Run("requires slot source", func(t *testing.T) {
		_, err := NewPipeline(events, nil)
		require.ErrorIs(t, err, ErrSlotSourceRequired)
	})

	t.Run("defaults to zone priority", func(t *testing.T) {
		p, err := NewPipeline(events, slots)
		require.NoError(t, err)
		require.IsType(t, &strategy.ZonePriority{}, p.Strategy())
	})

	t.Run("config selects strategy", func(t *testing.T) {
		cfg := TestConfig()
		cfg.Layout.Strategy = strategy.NameIdentity

		p, err := NewPipeline(events, slots, WithConfig(&cfg))
		require.NoError(t, err)
		require.IsType(t, &strategy.Identity{}, p.Strategy())
		require.Equal(t, "test-store", p.storeID)
	})

	t.Run("explicit options override config", func(t *testing.T) {
		cfg := TestConfig()
		cfg.Layout.Strategy = strategy.NameIdentity

		p, err := NewPipeline(events, slots,
			WithConfig(&cfg),
			WithStrategy(strategy.NewZonePriority()),
			WithStoreID("store-1"),
			WithDegradeOnSourceError(true),
		)
		require.NoError(t, err)
		require.IsType(t, &strategy.ZonePriority{}, p.Strategy())
		require.Equal(t, "store-1", p.storeID)
		require.True(t, p.degrade)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := TestConfig()
		cfg.Layout.FallbackOrder = []Zone{ZoneAny}

		_, err := NewPipeline(events, slots, WithConfig(&cfg))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestPipeline_Compute_SixSlotScenario(t *testing.T) {
	events, slots := sixSlotScenario()
	p := newStaticPipeline(t, events, slots)

	result := p.Compute(events, slots, TimeRange{})

	// Zones: 2 / 2 / 2 by row
	require.Equal(t, []string{"slot-0-0", "slot-0-1"}, result.Zones.Front)
	require.Equal(t, []string{"slot-1-0", "slot-1-1"}, result.Zones.Middle)
	require.Equal(t, []string{"slot-2-0", "slot-2-1"}, result.Zones.Back)

	require.InDelta(t, 80.0, result.Averages.DwellSeconds, 1e-9)
	require.InDelta(t, 40.0, result.Averages.AbandonmentRate, 1e-9)

	byID := result.CategorizedByID()
	require.Equal(t, CategoryAnchor, byID["slot-0-0"].Category)
	require.Equal(t, ZoneMiddle, byID["slot-0-0"].TargetZone)
	require.Contains(t, byID["slot-0-0"].Rationale, "130")
	require.Equal(t, CategoryRisk, byID["slot-2-1"].Category)
	require.Equal(t, ZoneFront, byID["slot-2-1"].TargetZone)
	for _, id := range []string{"slot-0-1", "slot-1-0", "slot-1-1", "slot-2-0"} {
		require.Equal(t, CategoryNormal, byID[id].Category, id)
	}

	testutil.AssertLayoutBijective(t, result.Layout, types.SlotIDs(slots), types.SlotIDs(slots))
	testutil.AssertPlacedInZone(t, result.Layout, "slot-0-0", ZoneMiddle)
	testutil.AssertPlacedInZone(t, result.Layout, "slot-2-1", ZoneFront)

	// Risk claims the first Front slot, Anchor the first Middle slot, and the
	// displaced Normal item fills the slot Risk vacated.
	mapping := result.Layout.Mapping()
	require.Equal(t, "item@slot-2-1", mapping["slot-0-0"].Label)
	require.Equal(t, "item@slot-0-0", mapping["slot-1-0"].Label)
	require.Equal(t, "item@slot-1-0", mapping["slot-2-1"].Label)
	require.Equal(t, "item@slot-0-1", mapping["slot-0-1"].Label)
	require.Len(t, result.Layout.Moves(), 3)

	after := result.Layout.Apply(slots)
	testutil.AssertCoordinatesPreserved(t, slots, after)
	require.Equal(t, "item@slot-2-1", after[0].Metadata.Label)
}

func TestPipeline_Compute_NoEvents(t *testing.T) {
	slots := testutil.GridSlots(2, 2)
	p := newStaticPipeline(t, nil, slots)

	result := p.Compute(nil, slots, TimeRange{})

	require.Len(t, result.Categorized, 4)
	for _, c := range result.Categorized {
		require.Equal(t, CategoryNormal, c.Category)
		require.Zero(t, c.TotalInteractions)
	}
	require.True(t, result.Layout.IsIdentity())
	require.Len(t, result.Layout.Placements, 4)
	require.Empty(t, result.Layout.Unplaced)

	after := result.Layout.Apply(slots)
	require.Equal(t, slots, after)
}

func TestPipeline_Compute_EmptySnapshot(t *testing.T) {
	p := newStaticPipeline(t, nil, nil)

	events := testutil.RepeatEvents("ghost", types.EventPurchased, 3, baseTime, nil)
	result := p.Compute(events, nil, TimeRange{})

	require.Empty(t, result.Metrics)
	require.Empty(t, result.Layout.Placements)
	require.Equal(t, 3, result.Stats.UnknownSlot)
	require.Zero(t, result.Averages.SlotCount)
}

func TestPipeline_Compute_Idempotent(t *testing.T) {
	events, slots := sixSlotScenario()
	p := newStaticPipeline(t, events, slots)

	first := p.Compute(events, slots, TimeRange{})
	second := p.Compute(events, slots, TimeRange{})

	require.Equal(t, first, second)
	require.Equal(t, first.Layout.Fingerprint(), second.Layout.Fingerprint())
}

func TestPipeline_Compute_DoesNotMutateInput(t *testing.T) {
	events, slots := sixSlotScenario()
	slots[0].Metadata.Counters = map[string]int{"purchases": 3}
	snapshot := append([]types.PhysicalSlot(nil), slots...)
	p := newStaticPipeline(t, events, slots)

	result := p.Compute(events, slots, TimeRange{})
	result.Categorized[0].Payload.Counters["purchases"] = 99

	require.Equal(t, snapshot, slots)
	require.Equal(t, 3, slots[0].Metadata.Counters["purchases"])
}

func TestPipeline_Compute_Window(t *testing.T) {
	events, slots := sixSlotScenario()
	p := newStaticPipeline(t, events, slots)

	// Every scenario event is at or after baseTime; a window ending there excludes them all.
	result := p.Compute(events, slots, TimeRange{End: baseTime})

	require.Equal(t, len(events), result.Stats.OutOfWindow)
	require.True(t, result.Layout.IsIdentity())
}

func TestPipeline_Compute_CustomRules(t *testing.T) {
	events, slots := sixSlotScenario()
	rules := []categorize.Rule{{
		Category: CategoryMagnet,
		Zone:     ZoneBack,
		Match: func(m types.SlotMetrics, _ types.PopulationAverages) bool {
			return m.SlotID == "slot-0-1"
		},
		Explain: func(types.SlotMetrics, types.PopulationAverages) string { return "pinned" },
	}}
	p := newStaticPipeline(t, events, slots, WithRules(rules))

	result := p.Compute(events, slots, TimeRange{})

	byID := result.CategorizedByID()
	require.Equal(t, CategoryMagnet, byID["slot-0-1"].Category)
	require.Equal(t, CategoryNormal, byID["slot-0-0"].Category)
	testutil.AssertPlacedInZone(t, result.Layout, "slot-0-1", ZoneBack)
}

func TestCompute(t *testing.T) {
	events, slots := sixSlotScenario()

	result := Compute(events, slots, TimeRange{})

	testutil.AssertPlacedInZone(t, result.Layout, "slot-0-0", ZoneMiddle)
	testutil.AssertPlacedInZone(t, result.Layout, "slot-2-1", ZoneFront)
}

func TestCompute_DuplicateSlotIDs(t *testing.T) {
	slots := []types.PhysicalSlot{
		{SlotID: "a", X: 0, Y: 0},
		{SlotID: "b", X: 1, Y: 0},
		{SlotID: "a", X: 2, Y: 5},
	}

	result := Compute(nil, slots, TimeRange{})

	require.Equal(t, 2, result.Zones.Len())
	require.Equal(t, []string{"a"}, result.Zones.Front)
	require.Equal(t, []string{"b"}, result.Zones.Back)
	require.Len(t, result.Layout.Placements, 2)
	testutil.AssertLayoutInjective(t, result.Layout)
	testutil.AssertLayoutBijective(t, result.Layout, []string{"a", "b"}, []string{"a", "b"})
}

type failingEvents struct{ err error }

func (f failingEvents) ListEvents(context.Context, TimeRange) ([]Event, error) { return nil, f.err }

type failingSlots struct{ err error }

func (f failingSlots) ListSlots(context.Context) ([]PhysicalSlot, error) { return nil, f.err }

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	events, slots := sixSlotScenario()
	errBackend := errors.New("backend down")

	t.Run("computes from sources", func(t *testing.T) {
		p := newStaticPipeline(t, events, slots, WithStoreID("store-1"))

		result, err := p.Run(ctx, TimeRange{})
		require.NoError(t, err)
		require.Equal(t, "store-1", result.StoreID)
		require.Equal(t, fixedClock(), result.GeneratedAt)
		require.Equal(t, p.Compute(events, slots, TimeRange{}), result)
	})

	t.Run("slot source failure", func(t *testing.T) {
		p, err := NewPipeline(source.NewStatic(events), failingSlots{errBackend})
		require.NoError(t, err)

		_, err = p.Run(ctx, TimeRange{})
		require.ErrorIs(t, err, ErrSlotSource)
		require.ErrorIs(t, err, errBackend)
	})

	t.Run("event source failure", func(t *testing.T) {
		p, err := NewPipeline(failingEvents{errBackend}, source.NewStaticSlots(slots))
		require.NoError(t, err)

		_, err = p.Run(ctx, TimeRange{})
		require.ErrorIs(t, err, ErrEventSource)
		require.ErrorIs(t, err, errBackend)
	})

	t.Run("event source failure degrades to identity", func(t *testing.T) {
		p, err := NewPipeline(failingEvents{errBackend}, source.NewStaticSlots(slots),
			WithDegradeOnSourceError(true),
		)
		require.NoError(t, err)

		result, err := p.Run(ctx, TimeRange{})
		require.NoError(t, err)
		require.True(t, result.Layout.IsIdentity())
		require.Len(t, result.Categorized, len(slots))
	})
}

type recordingMetrics struct {
	mu       sync.Mutex
	runs     []bool
	counts   map[types.Category]int
	moves    int
	ignored  map[string]int
	versions []int64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{ignored: make(map[string]int)}
}

func (m *recordingMetrics) RecordRun(_ float64, _ int, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, success)
}

func (m *recordingMetrics) RecordCategoryCounts(counts map[types.Category]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = counts
}

func (m *recordingMetrics) RecordMoves(moves int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = moves
}

func (m *recordingMetrics) RecordEventsIgnored(reason string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignored[reason] += count
}

func (m *recordingMetrics) RecordPublish(version int64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.versions = append(m.versions, version)
	}
}

func TestPipeline_Run_RecordsMetrics(t *testing.T) {
	events, slots := sixSlotScenario()
	events = append(events, types.Event{SlotID: "gone", Type: types.EventPurchased, Timestamp: baseTime})
	collector := newRecordingMetrics()
	p := newStaticPipeline(t, events, slots, WithMetrics(collector))

	_, err := p.Run(context.Background(), TimeRange{})
	require.NoError(t, err)

	require.Equal(t, []bool{true}, collector.runs)
	require.Equal(t, 1, collector.counts[CategoryAnchor])
	require.Equal(t, 1, collector.counts[CategoryRisk])
	require.Equal(t, 4, collector.counts[CategoryNormal])
	require.Equal(t, 3, collector.moves)
	require.Equal(t, 1, collector.ignored[IgnoredUnknownSlot])
	require.Zero(t, collector.ignored[IgnoredOutOfWindow])
}
