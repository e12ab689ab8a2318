package source

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/types"
)

// DefaultSlotKeyPrefix is the key prefix of slot entries in the KV bucket.
const DefaultSlotKeyPrefix = "slot"

// KVSlots reads the physical slot snapshot from a NATS KV bucket.
//
// Each slot is stored as a JSON types.PhysicalSlot under "<prefix>.<slotID>".
// Slots are returned ordered by key.
type KVSlots struct {
	kv        jetstream.KeyValue
	keyPrefix string // cached "prefix."
	logger    types.Logger
}

var _ types.SlotSource = (*KVSlots)(nil)

// KVSlotsOption configures a KVSlots source.
type KVSlotsOption func(*KVSlots)

// WithKeyPrefix sets the slot key prefix.
func WithKeyPrefix(prefix string) KVSlotsOption {
	return func(s *KVSlots) {
		if prefix != "" {
			s.keyPrefix = prefix + "."
		}
	}
}

// WithKVSlotsLogger sets the logger.
func WithKVSlotsLogger(logger types.Logger) KVSlotsOption {
	return func(s *KVSlots) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewKVSlots creates a slot source backed by kv.
//
// Parameters:
//   - kv: NATS KV bucket holding slot geometry
//   - opts: Optional configuration (WithKeyPrefix, WithKVSlotsLogger)
//
// Returns:
//   - *KVSlots: Initialized slot source
func NewKVSlots(kv jetstream.KeyValue, opts ...KVSlotsOption) *KVSlots {
	s := &KVSlots{
		kv:        kv,
		keyPrefix: DefaultSlotKeyPrefix + ".",
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ListSlots returns all slots stored in the bucket.
//
// An empty bucket yields an empty snapshot. Entries that fail to decode are
// skipped and logged.
func (s *KVSlots) ListSlots(ctx context.Context) ([]types.PhysicalSlot, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if types.IsNoKeysFoundError(err) {
			return []types.PhysicalSlot{}, nil
		}

		return nil, fmt.Errorf("failed to list KV keys: %w", err)
	}
	slices.Sort(keys)

	slots := make([]types.PhysicalSlot, 0, len(keys))
	for _, key := range keys {
		if !strings.HasPrefix(key, s.keyPrefix) {
			continue
		}

		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read slot %s: %w", key, err)
		}

		var slot types.PhysicalSlot
		if err := json.Unmarshal(entry.Value(), &slot); err != nil {
			s.logger.Warn("skipping malformed slot entry", "key", key, "error", err)
			continue
		}
		if slot.SlotID == "" {
			slot.SlotID = strings.TrimPrefix(key, s.keyPrefix)
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

// PutSlot stores slot in the bucket.
//
// Parameters:
//   - ctx: Context for cancellation
//   - slot: Slot to store; its id becomes the key suffix
//
// Returns:
//   - error: Marshal or KV failure
func (s *KVSlots) PutSlot(ctx context.Context, slot types.PhysicalSlot) error {
	data, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to marshal slot: %w", err)
	}

	if _, err := s.kv.Put(ctx, s.keyPrefix+slot.SlotID, data); err != nil {
		return fmt.Errorf("failed to store slot %s: %w", slot.SlotID, err)
	}

	return nil
}

// ApplyLayout writes the layout's display metadata back to the stored slots.
//
// Coordinates are never modified. Only slots whose content moves are written,
// one key at a time, so a failure leaves the bucket partly updated. Each moved
// slot receives the metadata its placement captured when the layout was
// computed, which makes a retry with the same layout converge. Placements
// without metadata copy the source slot's stored metadata instead; retrying
// those after a partial write is not safe.
//
// Returns:
//   - int: Number of slots updated
//   - error: KV failure
func (s *KVSlots) ApplyLayout(ctx context.Context, layout types.LayoutAssignment) (int, error) {
	current, err := s.ListSlots(ctx)
	if err != nil {
		return 0, err
	}

	byID := make(map[string]types.PhysicalSlot, len(current))
	for _, slot := range current {
		byID[slot.SlotID] = slot
	}

	updated := 0
	for _, p := range layout.Moves() {
		slot, ok := byID[p.SlotID]
		if !ok {
			s.logger.Debug("layout placement for unknown slot", "slot_id", p.SlotID)
			continue
		}

		content := p.Metadata
		if content.IsZero() {
			content = byID[p.SourceSlotID].Metadata
		}
		slot.Metadata = content.Clone()

		if err := s.PutSlot(ctx, slot); err != nil {
			return updated, fmt.Errorf("layout partly applied (%d of %d slots): %w", updated, len(layout.Moves()), err)
		}
		updated++
	}

	return updated, nil
}
