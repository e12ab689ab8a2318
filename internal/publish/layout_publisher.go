package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/types"
)

// DefaultPrefix is the default key prefix for layout records.
const DefaultPrefix = "layout"

// LayoutPublisher handles publishing layouts to NATS KV.
//
// Manages version monotonicity across restarts by discovering the highest
// existing version before publishing.
type LayoutPublisher struct {
	layoutKV  jetstream.KeyValue
	prefix    string
	keyPrefix string // cached "prefix."

	mu             sync.Mutex
	currentVersion int64
	lastPublish    time.Time
	now            func() time.Time

	logger  types.Logger
	metrics types.PublisherMetrics
}

// NewLayoutPublisher creates a new layout publisher.
//
// Parameters:
//   - layoutKV: NATS KV bucket for layouts
//   - prefix: Prefix for layout keys ("" selects DefaultPrefix)
//   - logger: Logger for publishing events
//   - metrics: Metrics collector for publish operations
//
// Returns:
//   - *LayoutPublisher: A new publisher instance
func NewLayoutPublisher(
	layoutKV jetstream.KeyValue,
	prefix string,
	logger types.Logger,
	metrics types.PublisherMetrics,
) *LayoutPublisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &LayoutPublisher{
		layoutKV:  layoutKV,
		prefix:    prefix,
		keyPrefix: prefix + ".",
		now:       time.Now,
		logger:    logger,
		metrics:   metrics,
	}
}

// DefaultStoreID is used for results without a store id.
const DefaultStoreID = "default"

// Key returns the KV key holding the layout of storeID.
func (p *LayoutPublisher) Key(storeID string) string {
	if storeID == "" {
		storeID = DefaultStoreID
	}

	return p.keyPrefix + storeID
}

// DiscoverHighestVersion scans KV for the highest existing layout version.
//
// An empty bucket is not an error.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Nil on success, error on KV access failure
func (p *LayoutPublisher) DiscoverHighestVersion(ctx context.Context) error {
	keys, err := p.layoutKV.Keys(ctx)
	if err != nil {
		if types.IsNoKeysFoundError(err) {
			p.logger.Debug("no existing layouts found", "prefix", p.prefix)
			return nil
		}

		return fmt.Errorf("failed to list KV keys: %w", err)
	}

	highestVersion := int64(0)
	checkedCount := 0
	for _, key := range keys {
		// Skip keys written by other components (slot geometry, etc.)
		if !strings.HasPrefix(key, p.keyPrefix) {
			continue
		}

		checkedCount++
		entry, err := p.layoutKV.Get(ctx, key)
		if err != nil {
			p.logger.Debug("failed to read layout key", "key", key, "error", err)
			continue
		}

		var rec types.LayoutRecord
		if err := json.Unmarshal(entry.Value(), &rec); err != nil {
			p.logger.Debug("failed to unmarshal layout", "key", key, "error", err)
			continue
		}

		if rec.Version > highestVersion {
			highestVersion = rec.Version
		}
	}

	p.mu.Lock()
	if highestVersion > p.currentVersion {
		p.currentVersion = highestVersion
	}
	p.mu.Unlock()

	if highestVersion > 0 {
		p.logger.Info("discovered existing layouts", "highest_version", highestVersion, "checked_keys", checkedCount)
	}

	return nil
}

// Publish writes the layout of result as the next version.
//
// The version is only consumed when the write succeeds.
//
// Parameters:
//   - ctx: Context for cancellation
//   - result: Pipeline result to publish
//
// Returns:
//   - int64: Published version
//   - error: ErrPublishFailed wrapping the marshal or KV failure
func (p *LayoutPublisher) Publish(ctx context.Context, result *types.Result) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("%w: nil result", types.ErrPublishFailed)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	version := p.currentVersion + 1
	rec := types.LayoutRecord{
		Version:     version,
		StoreID:     result.StoreID,
		Fingerprint: strconv.FormatUint(result.Layout.Fingerprint(), 16),
		PublishedAt: p.now(),
		Window:      result.Window,
		Layout:      result.Layout,
		Categorized: result.Categorized,
		Averages:    result.Averages,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		p.metrics.RecordPublish(version, false)
		return 0, fmt.Errorf("%w: failed to marshal layout: %w", types.ErrPublishFailed, err)
	}

	key := p.Key(result.StoreID)
	if _, err := p.layoutKV.Put(ctx, key, data); err != nil {
		p.metrics.RecordPublish(version, false)
		return 0, fmt.Errorf("%w: %w", types.ErrPublishFailed, err)
	}

	p.currentVersion = version
	p.lastPublish = rec.PublishedAt
	p.metrics.RecordPublish(version, true)

	p.logger.Info("layout published",
		"key", key,
		"version", version,
		"placements", len(result.Layout.Placements),
		"moves", len(result.Layout.Moves()),
	)

	return version, nil
}

// Latest reads the stored layout of storeID.
//
// Returns:
//   - *types.LayoutRecord: Stored record, nil when none exists
//   - error: KV or decode failure
func (p *LayoutPublisher) Latest(ctx context.Context, storeID string) (*types.LayoutRecord, error) {
	entry, err := p.layoutKV.Get(ctx, p.Key(storeID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, nil //nolint:nilnil // absence is not an error
		}

		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	var rec types.LayoutRecord
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode layout: %w", err)
	}

	return &rec, nil
}

// Delete removes the stored layout of storeID.
func (p *LayoutPublisher) Delete(ctx context.Context, storeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.layoutKV.Delete(ctx, p.Key(storeID)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete layout: %w", err)
	}

	return nil
}

// CurrentVersion returns the last published or discovered version.
//
// This method is thread-safe and can be called concurrently.
func (p *LayoutPublisher) CurrentVersion() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.currentVersion
}

// LastPublishTime returns the time of the last successful publish.
func (p *LayoutPublisher) LastPublishTime() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastPublish
}
