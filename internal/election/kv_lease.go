package election

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/types"
)

// DefaultKeyPrefix prefixes lease keys.
const DefaultKeyPrefix = "lease"

// leaseValue is the JSON document stored under the lease key.
type leaseValue struct {
	Holder     string    `json:"holder"`
	AcquiredAt time.Time `json:"acquiredAt"`
	RenewedAt  time.Time `json:"renewedAt"`
}

// KVLease implements types.PublisherLease on a NATS KV bucket.
//
// Uses atomic KV operations:
//   - Create (atomic): acquire the lease if the key doesn't exist
//   - Update (with revision): renew the lease while still holding it
//   - Delete: release the lease
//
// All fields are protected by mu.
type KVLease struct {
	kv  jetstream.KeyValue
	key string
	now func() time.Time

	mu         sync.RWMutex
	holder     string
	revision   uint64
	acquiredAt time.Time
	held       bool
}

var _ types.PublisherLease = (*KVLease)(nil)

// NewKVLease creates a lease for storeID on kv.
//
// Parameters:
//   - kv: JetStream KV bucket with a TTL longer than the renewal cadence
//   - storeID: Store the lease guards; the key is "lease.<storeID>"
//
// Returns:
//   - *KVLease: Lease (not held)
func NewKVLease(kv jetstream.KeyValue, storeID string) *KVLease {
	return &KVLease{
		kv:  kv,
		key: DefaultKeyPrefix + "." + storeID,
		now: time.Now,
	}
}

// Key returns the KV key of the lease.
func (l *KVLease) Key() string {
	return l.key
}

// Acquire acquires the lease for holder or renews it when holder already has it.
//
// Parameters:
//   - ctx: Context for timeout
//   - holder: Identity of the requesting instance (non-empty)
//
// Returns:
//   - bool: true if holder holds the lease after the call
//   - error: KV failure wrapped with types.ErrLease
func (l *KVLease) Acquire(ctx context.Context, holder string) (bool, error) {
	if holder == "" {
		return false, fmt.Errorf("%w: holder is required", types.ErrLease)
	}

	held, current, revision, acquiredAt := l.state()
	if held && current == holder {
		ok, err := l.renew(ctx, holder, revision, acquiredAt)
		if err != nil || ok {
			return ok, err
		}
		// Lost since the last renewal; try to take it again below.
	}

	now := l.now()
	value, err := json.Marshal(leaseValue{Holder: holder, AcquiredAt: now, RenewedAt: now})
	if err != nil {
		return false, fmt.Errorf("%w: %w", types.ErrLease, err)
	}

	rev, err := l.kv.Create(ctx, l.key, value)
	if err == nil {
		l.setState(true, holder, rev, now)
		return true, nil
	}
	if !errors.Is(err, jetstream.ErrKeyExists) {
		return false, fmt.Errorf("%w: failed to create lease key: %w", types.ErrLease, err)
	}

	return l.reclaim(ctx, holder)
}

// reclaim takes over an existing lease that already names holder, which happens
// when an instance restarts before its previous lease expired.
func (l *KVLease) reclaim(ctx context.Context, holder string) (bool, error) {
	entry, err := l.kv.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			// Expired between Create and Get; the next run retries.
			return false, nil
		}

		return false, fmt.Errorf("%w: failed to read lease key: %w", types.ErrLease, err)
	}

	var current leaseValue
	if err := json.Unmarshal(entry.Value(), &current); err != nil || current.Holder != holder {
		l.clear()
		return false, nil
	}

	return l.renew(ctx, holder, entry.Revision(), current.AcquiredAt)
}

func (l *KVLease) renew(ctx context.Context, holder string, revision uint64, acquiredAt time.Time) (bool, error) {
	value, err := json.Marshal(leaseValue{Holder: holder, AcquiredAt: acquiredAt, RenewedAt: l.now()})
	if err != nil {
		return false, fmt.Errorf("%w: %w", types.ErrLease, err)
	}

	rev, err := l.kv.Update(ctx, l.key, value, revision)
	if err != nil {
		if isLost(err) {
			l.clear()
			return false, nil
		}

		// Transient failure: keep the revision so the next renewal or Release can still succeed.
		return false, fmt.Errorf("%w: failed to renew lease: %w", types.ErrLease, err)
	}

	l.setState(true, holder, rev, acquiredAt)

	return true, nil
}

// isLost reports whether an update failure means another holder owns the key
// or the lease expired.
func isLost(err error) bool {
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence {
		return true
	}

	return errors.Is(err, jetstream.ErrKeyExists) ||
		errors.Is(err, jetstream.ErrKeyNotFound) ||
		errors.Is(err, jetstream.ErrKeyDeleted)
}

// Release deletes the lease key.
//
// Returns:
//   - error: types.ErrNotLeaseHolder if not held, or a KV failure
func (l *KVLease) Release(ctx context.Context) error {
	held, _, revision, _ := l.state()
	if !held {
		return types.ErrNotLeaseHolder
	}

	err := l.kv.Delete(ctx, l.key, jetstream.LastRevision(revision))
	l.clear()
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("%w: failed to delete lease key: %w", types.ErrLease, err)
	}

	return nil
}

// Held reports whether the lease was held after the last Acquire.
func (l *KVLease) Held() bool {
	held, _, _, _ := l.state()
	return held
}

// Holder returns the identity holding the lease through this instance, or "".
func (l *KVLease) Holder() string {
	held, holder, _, _ := l.state()
	if !held {
		return ""
	}

	return holder
}

func (l *KVLease) state() (held bool, holder string, revision uint64, acquiredAt time.Time) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.held, l.holder, l.revision, l.acquiredAt
}

func (l *KVLease) setState(held bool, holder string, revision uint64, acquiredAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = held
	l.holder = holder
	l.revision = revision
	l.acquiredAt = acquiredAt
}

func (l *KVLease) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.held = false
	l.revision = 0
}
