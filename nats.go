package slotwise

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/internal/election"
	"github.com/arloliu/slotwise/internal/heartbeat"
	"github.com/arloliu/slotwise/internal/kvutil"
	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/internal/metrics"
	"github.com/arloliu/slotwise/internal/publish"
	"github.com/arloliu/slotwise/source"
)

// LayoutStore publishes layouts and reads them back.
type LayoutStore interface {
	LayoutPublisher

	// Latest returns the stored layout of storeID, or nil when none exists.
	Latest(ctx context.Context, storeID string) (*LayoutRecord, error)

	// Delete removes the stored layout of storeID.
	Delete(ctx context.Context, storeID string) error

	// CurrentVersion returns the last published version.
	CurrentVersion() int64
}

var _ LayoutStore = (*publish.LayoutPublisher)(nil)

// NewKVLayoutStore creates or opens the layout KV bucket and returns a store over it.
//
// The bucket name and key prefix come from cfg.KVBuckets. Version numbering
// resumes from the highest version already stored.
//
// Parameters:
//   - ctx: Context for bucket creation and version discovery
//   - js: JetStream context
//   - cfg: Configuration (defaults applied to a copy)
//   - logger: Logger (nil for no-op)
//   - collector: Metrics collector (nil for no-op)
//
// Returns:
//   - LayoutStore: Store usable with WithPublisher
//   - error: Bucket or discovery failure
//
// Example:
//
//	store, err := slotwise.NewKVLayoutStore(ctx, js, &cfg, logger, nil)
//	if err != nil {
//	    return err
//	}
//	runner, err := slotwise.NewRunner(&cfg, pipeline, slotwise.WithPublisher(store))
func NewKVLayoutStore(
	ctx context.Context,
	js jetstream.JetStream,
	cfg *Config,
	logger Logger,
	collector MetricsCollector,
) (LayoutStore, error) {
	c := resolvedConfig(cfg)
	if logger == nil {
		logger = logging.NewNop()
	}
	if collector == nil {
		collector = metrics.NewNop()
	}

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      c.KVBuckets.LayoutBucket,
		Description: "slotwise published layouts",
		History:     5,
	}, 3)
	if err != nil {
		return nil, err
	}

	store := publish.NewLayoutPublisher(kv, c.KVBuckets.LayoutPrefix, logger, collector)
	if err := store.DiscoverHighestVersion(ctx); err != nil {
		return nil, fmt.Errorf("failed to discover layout version: %w", err)
	}

	return store, nil
}

// NewJetStreamSources creates or opens the event stream and slot bucket named by
// cfg.KVBuckets and returns sources over them.
//
// The stream captures every subject under cfg.KVBuckets.EventSubjectPrefix.
//
// Parameters:
//   - ctx: Context for stream and bucket creation
//   - js: JetStream context
//   - cfg: Configuration (defaults applied to a copy)
//   - logger: Logger (nil for no-op)
//
// Returns:
//   - *source.JetStream: Event source
//   - *source.KVSlots: Slot source
//   - error: Stream or bucket failure
func NewJetStreamSources(
	ctx context.Context,
	js jetstream.JetStream,
	cfg *Config,
	logger Logger,
) (*source.JetStream, *source.KVSlots, error) {
	c := resolvedConfig(cfg)
	if logger == nil {
		logger = logging.NewNop()
	}

	_, err := kvutil.EnsureStreamWithRetry(ctx, js, jetstream.StreamConfig{
		Name:        c.KVBuckets.EventStream,
		Description: "slotwise behavioral events",
		Subjects:    []string{c.KVBuckets.EventSubjectPrefix + ".>"},
		MaxAge:      24 * c.Window,
	}, 3)
	if err != nil {
		return nil, nil, err
	}

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      c.KVBuckets.SlotBucket,
		Description: "slotwise slot geometry",
	}, 3)
	if err != nil {
		return nil, nil, err
	}

	events := source.NewJetStream(js, c.KVBuckets.EventStream,
		source.WithSubjectPrefix(c.KVBuckets.EventSubjectPrefix),
		source.WithJetStreamLogger(logger),
	)
	slots := source.NewKVSlots(kv, source.WithKVSlotsLogger(logger))

	return events, slots, nil
}

// StatusReporter periodically writes a runner status record.
type StatusReporter interface {
	// Start writes the first record and begins periodic updates.
	Start(ctx context.Context) error

	// Stop ends updates and deletes the record.
	Stop() error
}

var _ StatusReporter = (*heartbeat.Publisher)(nil)

// NewKVLease creates or opens the lease bucket and returns the publisher lease of cfg.StoreID.
//
// The bucket TTL is cfg.Coordination.LeaseTTL, so a lease that is not renewed
// within that time expires and another replica takes over.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - js: JetStream context
//   - cfg: Configuration (defaults applied to a copy)
//
// Returns:
//   - PublisherLease: Lease usable with WithLease
//   - error: Bucket failure
//
// Example:
//
//	lease, err := slotwise.NewKVLease(ctx, js, &cfg)
//	if err != nil {
//	    return err
//	}
//	runner, err := slotwise.NewRunner(&cfg, pipeline,
//	    slotwise.WithPublisher(store),
//	    slotwise.WithLease(lease),
//	)
func NewKVLease(ctx context.Context, js jetstream.JetStream, cfg *Config) (PublisherLease, error) {
	c := resolvedConfig(cfg)

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      c.Coordination.LeaseBucket,
		Description: "slotwise publisher leases",
		TTL:         c.Coordination.LeaseTTL,
	}, 3)
	if err != nil {
		return nil, err
	}

	return election.NewKVLease(kv, c.StoreID), nil
}

// NewKVStatusReporter creates or opens the status bucket and returns a reporter
// writing runner.Status every cfg.Coordination.StatusInterval.
//
// Records expire after three intervals without an update.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - js: JetStream context
//   - cfg: Configuration (defaults applied to a copy)
//   - runner: Runner whose status is reported
//   - logger: Logger (nil for no-op)
//
// Returns:
//   - StatusReporter: Reporter (not started)
//   - error: Bucket failure
func NewKVStatusReporter(
	ctx context.Context,
	js jetstream.JetStream,
	cfg *Config,
	runner *Runner,
	logger Logger,
) (StatusReporter, error) {
	c := resolvedConfig(cfg)

	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:      c.Coordination.StatusBucket,
		Description: "slotwise runner status",
		TTL:         3 * c.Coordination.StatusInterval,
	}, 3)
	if err != nil {
		return nil, err
	}

	return heartbeat.New(kv, c.StoreID, runner.InstanceID(), c.Coordination.StatusInterval, runner.Status, logger), nil
}

func resolvedConfig(cfg *Config) Config {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	SetDefaults(&c)

	return c
}
