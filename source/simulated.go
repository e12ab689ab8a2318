package source

import (
	"context"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/arloliu/slotwise/internal/hash"
	"github.com/arloliu/slotwise/types"
)

// DefaultSimulatedSpan is the window length used when a window has no start.
const DefaultSimulatedSpan = time.Hour

// Simulated generates deterministic synthetic telemetry.
//
// Every slot has a stable behavioral profile derived from the seed and its id,
// so the same slot keeps behaving the same way across runs while different
// slots behave differently. Events for a window are a pure function of
// (seed, slot id, window): repeated queries return identical events.
type Simulated struct {
	slotIDs []string
	seed    uint64
	perSlot int
	labels  []string
	span    time.Duration
	now     func() time.Time
}

var _ types.EventSource = (*Simulated)(nil)

// SimulatedOption configures a Simulated source.
type SimulatedOption func(*Simulated)

// WithSeed sets the simulation seed.
func WithSeed(seed uint64) SimulatedOption {
	return func(s *Simulated) {
		s.seed = seed
	}
}

// WithEventsPerSlot sets the average number of events generated per slot and window.
func WithEventsPerSlot(n int) SimulatedOption {
	return func(s *Simulated) {
		if n > 0 {
			s.perSlot = n
		}
	}
}

// WithClassLabels sets the item class labels attached to generated events.
//
// A slot always reports the same label.
func WithClassLabels(labels ...string) SimulatedOption {
	return func(s *Simulated) {
		s.labels = append([]string(nil), labels...)
	}
}

// WithClock sets the clock used to close windows without an end.
func WithClock(now func() time.Time) SimulatedOption {
	return func(s *Simulated) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSimulated creates a simulated event source for the given slots.
//
// Parameters:
//   - slotIDs: Slots to generate events for
//   - opts: Optional configuration (WithSeed, WithEventsPerSlot, WithClassLabels, WithClock)
//
// Returns:
//   - *Simulated: Initialized simulator
//
// Example:
//
//	slots := testutil.GridSlots(3, 4)
//	events := source.NewSimulated(types.SlotIDs(slots), source.WithSeed(7))
func NewSimulated(slotIDs []string, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		slotIDs: append([]string(nil), slotIDs...),
		seed:    1,
		perSlot: 40,
		labels:  []string{"water_bottle", "coffee_mug", "notebook", "headphones", "backpack", "sunglasses"},
		span:    DefaultSimulatedSpan,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// profile is the stable behavior of one slot.
type profile struct {
	weights   [4]float64 // window shopped, abandoned, purchased, moved
	meanDwell float64
	label     string
}

var simulatedTypes = [4]types.EventType{
	types.EventWindowShopped,
	types.EventCartAbandoned,
	types.EventPurchased,
	types.EventMoved,
}

func (s *Simulated) profile(slotID string) profile {
	slotSeed := hash.SeedFor(s.seed, slotID)
	rng := rand.New(rand.NewPCG(slotSeed, s.seed)) //nolint:gosec // deterministic simulation, not security sensitive

	var p profile
	for i := range p.weights {
		p.weights[i] = 0.1 + rng.Float64()
	}
	p.meanDwell = 5 + rng.Float64()*120
	if len(s.labels) > 0 {
		p.label = s.labels[rng.IntN(len(s.labels))]
	}

	return p
}

// ListEvents generates events for every slot inside window, ordered by timestamp.
//
// A window without an end is closed at the current clock time; a window without
// a start spans DefaultSimulatedSpan.
func (s *Simulated) ListEvents(ctx context.Context, window types.TimeRange) ([]types.Event, error) {
	end := window.End
	if end.IsZero() {
		end = s.now()
	}
	start := window.Start
	if start.IsZero() {
		start = end.Add(-s.span)
	}
	span := end.Sub(start)
	if span <= 0 {
		return []types.Event{}, nil
	}

	events := make([]types.Event, 0, len(s.slotIDs)*s.perSlot)
	for _, id := range s.slotIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := s.profile(id)
		rng := rand.New(rand.NewPCG( //nolint:gosec // deterministic simulation
			hash.SeedFor(s.seed, id),
			hash.Fold(uint64(start.UnixNano()), end.Format(time.RFC3339Nano)),
		))

		n := s.perSlot/2 + rng.IntN(s.perSlot+1)
		for range n {
			ev := types.Event{
				SlotID:     id,
				ClassLabel: p.label,
				Type:       simulatedTypes[pick(rng, p.weights)],
				Timestamp:  start.Add(time.Duration(rng.Int64N(int64(span)))),
			}
			// Roughly one in five events carries no duration.
			if rng.IntN(5) != 0 {
				ev.DurationSeconds = types.Seconds(p.meanDwell * (0.5 + rng.Float64()))
			}
			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	return events, nil
}

func pick(rng *rand.Rand, weights [4]float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}

	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}

	return len(weights) - 1
}
