package slotwise

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/slotwise/strategy"
	"github.com/arloliu/slotwise/types"
)

// LayoutConfig selects the layout strategy and its placement policy.
type LayoutConfig struct {
	// Strategy names the layout strategy: "zone_priority" (default) or "identity".
	//
	// "identity" never swaps content and is useful for dry runs.
	Strategy string `yaml:"strategy"`

	// FallbackOrder is the order of zones tried when an item's target zone is full.
	// The target zone itself is skipped. Entries must be distinct concrete zones.
	//
	// Default: [Middle, Back, Front]
	FallbackOrder []types.Zone `yaml:"fallbackOrder"`
}

// KVBucketConfig configures NATS JetStream resources used by the runner and sources.
type KVBucketConfig struct {
	// LayoutBucket is the KV bucket where published layouts are stored.
	LayoutBucket string `yaml:"layoutBucket"`

	// LayoutPrefix is the key prefix for published layouts inside LayoutBucket.
	LayoutPrefix string `yaml:"layoutPrefix"`

	// SlotBucket is the KV bucket holding the physical slot geometry.
	SlotBucket string `yaml:"slotBucket"`

	// EventStream is the JetStream stream carrying behavioral events.
	EventStream string `yaml:"eventStream"`

	// EventSubjectPrefix is the subject prefix events are published under.
	// Events for slot "A1" go to "<prefix>.A1".
	EventSubjectPrefix string `yaml:"eventSubjectPrefix"`
}

// CoordinationConfig configures replica coordination for a store.
//
// Several runners may serve the same store. The publisher lease makes one of
// them publish layouts, and each reports a status record.
type CoordinationConfig struct {
	// InstanceID identifies this runner replica. Empty means the host name.
	InstanceID string `yaml:"instanceId"`

	// LeaseBucket is the KV bucket holding publisher leases.
	LeaseBucket string `yaml:"leaseBucket"`

	// LeaseTTL is how long a lease survives without renewal. The holder renews
	// on every run, so it must exceed Interval.
	//
	// Default: 3 x Interval
	LeaseTTL time.Duration `yaml:"leaseTtl"`

	// StatusBucket is the KV bucket holding runner status records.
	StatusBucket string `yaml:"statusBucket"`

	// StatusInterval is the time between status record updates.
	//
	// Default: 5 seconds
	StatusInterval time.Duration `yaml:"statusInterval"`
}

// ResolvedInstanceID returns InstanceID, falling back to the host name.
func (c CoordinationConfig) ResolvedInstanceID() string {
	if c.InstanceID != "" {
		return c.InstanceID
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}

	return "slotwise"
}

// Config is the configuration for a slotwise Runner and its Pipeline.
type Config struct {
	// StoreID identifies the store whose layout is computed.
	// Published layouts are keyed by it.
	StoreID string `yaml:"storeId"`

	// Interval is the time between analysis runs.
	//
	// Default: 15 seconds
	Interval time.Duration `yaml:"interval"`

	// Window is the length of the sliding event window ending at each run.
	//
	// Default: 15 minutes
	Window time.Duration `yaml:"window"`

	// DegradeOnSourceError makes an event source failure produce the identity
	// layout instead of failing the run. Slot source failures always fail the run.
	DegradeOnSourceError bool `yaml:"degradeOnSourceError"`

	// OperationTimeout bounds each source query and publish.
	//
	// Default: 10 seconds
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// ShutdownTimeout bounds how long Stop waits for an in-flight run.
	//
	// Default: 10 seconds
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// SubscriberBuffer is the channel capacity of each result subscriber.
	//
	// Default: 4
	SubscriberBuffer int `yaml:"subscriberBuffer"`

	// Layout configures the layout strategy.
	Layout LayoutConfig `yaml:"layout"`

	// KVBuckets configures NATS resource names.
	KVBuckets KVBucketConfig `yaml:"kvBuckets"`

	// Coordination configures the publisher lease and status records.
	Coordination CoordinationConfig `yaml:"coordination"`
}

// DefaultConfig returns a configuration with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
//
// Example:
//
//	cfg := slotwise.DefaultConfig()
//	cfg.StoreID = "store-042"
//	runner, err := slotwise.NewRunner(&cfg, pipeline)
func DefaultConfig() Config {
	return Config{
		StoreID:          "default",
		Interval:         15 * time.Second,
		Window:           15 * time.Minute,
		OperationTimeout: 10 * time.Second,
		ShutdownTimeout:  10 * time.Second,
		SubscriberBuffer: 4,
		Layout: LayoutConfig{
			Strategy:      strategy.NameZonePriority,
			FallbackOrder: append([]types.Zone(nil), strategy.DefaultFallbackOrder...),
		},
		KVBuckets: KVBucketConfig{
			LayoutBucket:       "slotwise-layouts",
			LayoutPrefix:       "layout",
			SlotBucket:         "slotwise-slots",
			EventStream:        "SLOTWISE_EVENTS",
			EventSubjectPrefix: "slotwise.events",
		},
		Coordination: CoordinationConfig{
			LeaseBucket:    "slotwise-leases",
			LeaseTTL:       45 * time.Second,
			StatusBucket:   "slotwise-status",
			StatusInterval: 5 * time.Second,
		},
	}
}

// SetDefaults fills zero-valued fields with defaults.
//
// Fields that are already set are preserved. This is applied after
// unmarshalling partial YAML.
//
// Parameters:
//   - cfg: Configuration to fill in place
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.StoreID == "" {
		cfg.StoreID = defaults.StoreID
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Window == 0 {
		cfg.Window = defaults.Window
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.SubscriberBuffer == 0 {
		cfg.SubscriberBuffer = defaults.SubscriberBuffer
	}

	if cfg.Layout.Strategy == "" {
		cfg.Layout.Strategy = defaults.Layout.Strategy
	}
	if len(cfg.Layout.FallbackOrder) == 0 {
		cfg.Layout.FallbackOrder = defaults.Layout.FallbackOrder
	}

	if cfg.KVBuckets.LayoutBucket == "" {
		cfg.KVBuckets.LayoutBucket = defaults.KVBuckets.LayoutBucket
	}
	if cfg.KVBuckets.LayoutPrefix == "" {
		cfg.KVBuckets.LayoutPrefix = defaults.KVBuckets.LayoutPrefix
	}
	if cfg.KVBuckets.SlotBucket == "" {
		cfg.KVBuckets.SlotBucket = defaults.KVBuckets.SlotBucket
	}
	if cfg.KVBuckets.EventStream == "" {
		cfg.KVBuckets.EventStream = defaults.KVBuckets.EventStream
	}
	if cfg.KVBuckets.EventSubjectPrefix == "" {
		cfg.KVBuckets.EventSubjectPrefix = defaults.KVBuckets.EventSubjectPrefix
	}

	if cfg.Coordination.LeaseBucket == "" {
		cfg.Coordination.LeaseBucket = defaults.Coordination.LeaseBucket
	}
	if cfg.Coordination.LeaseTTL == 0 {
		cfg.Coordination.LeaseTTL = 3 * cfg.Interval
	}
	if cfg.Coordination.StatusBucket == "" {
		cfg.Coordination.StatusBucket = defaults.Coordination.StatusBucket
	}
	if cfg.Coordination.StatusInterval == 0 {
		cfg.Coordination.StatusInterval = defaults.Coordination.StatusInterval
	}
}

// LoadConfig reads a YAML configuration file and applies defaults.
//
// The returned configuration is validated.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Loaded configuration
//   - error: Read, parse or validation error
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes, applies defaults and validates.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks configuration consistency.
//
// Returns:
//   - error: Wrapped ErrInvalidConfig describing the first violated rule, nil if valid
func (cfg *Config) Validate() error {
	// Rule 1: a run needs a positive cadence and window
	if cfg.Interval <= 0 {
		return fmt.Errorf("%w: Interval must be > 0, got %v", ErrInvalidConfig, cfg.Interval)
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("%w: Window must be > 0, got %v", ErrInvalidConfig, cfg.Window)
	}

	// Rule 2: I/O must be bounded
	if cfg.OperationTimeout <= 0 {
		return fmt.Errorf("%w: OperationTimeout must be > 0, got %v", ErrInvalidConfig, cfg.OperationTimeout)
	}

	// Rule 3: shutdown and fan-out sanity
	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: ShutdownTimeout must be >= 0, got %v", ErrInvalidConfig, cfg.ShutdownTimeout)
	}
	if cfg.SubscriberBuffer < 1 {
		return fmt.Errorf("%w: SubscriberBuffer must be >= 1, got %d", ErrInvalidConfig, cfg.SubscriberBuffer)
	}

	// Rule 4: layout policy
	if _, err := strategy.New(cfg.Layout.Strategy, cfg.Layout.FallbackOrder); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// Rule 5: publish key
	if cfg.StoreID == "" {
		return fmt.Errorf("%w: StoreID must not be empty", ErrInvalidConfig)
	}

	// Rule 6: the lease holder renews once per run
	if cfg.Coordination.LeaseTTL <= cfg.Interval {
		return fmt.Errorf("%w: LeaseTTL (%v) must exceed Interval (%v)",
			ErrInvalidConfig, cfg.Coordination.LeaseTTL, cfg.Interval)
	}
	if cfg.Coordination.StatusInterval <= 0 {
		return fmt.Errorf("%w: StatusInterval must be > 0, got %v", ErrInvalidConfig, cfg.Coordination.StatusInterval)
	}

	return nil
}

// ValidateWithWarnings logs warnings for values that are valid but not recommended.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	// The analysis cadence in production stores is 15-30 seconds.
	if cfg.Interval < 5*time.Second {
		logger.Warn(
			"Interval is very short, layouts may churn",
			"interval", cfg.Interval,
			"recommended", "15s-30s",
		)
	}

	if cfg.Window < cfg.Interval {
		logger.Warn(
			"Window is shorter than Interval, some events will never be analyzed",
			"window", cfg.Window,
			"interval", cfg.Interval,
		)
	}

	// Runs are serialized; a slow run delays the next tick.
	if cfg.OperationTimeout > cfg.Interval {
		logger.Warn(
			"OperationTimeout exceeds Interval, runs may be skipped",
			"operationTimeout", cfg.OperationTimeout,
			"interval", cfg.Interval,
		)
	}

	if cfg.Coordination.LeaseTTL < 2*cfg.Interval {
		logger.Warn(
			"LeaseTTL is less than two intervals, a slow run may lose the publisher lease",
			"leaseTtl", cfg.Coordination.LeaseTTL,
			"interval", cfg.Interval,
		)
	}

	if cfg.Layout.Strategy == strategy.NameIdentity {
		logger.Warn("identity strategy selected, layouts will never move content")
	}
}

// TestConfig returns a configuration with fast timings for tests.
//
// Returns:
//   - Config: Configuration suitable for unit and integration tests
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.StoreID = "test-store"
	cfg.Interval = 100 * time.Millisecond
	cfg.Window = time.Hour
	cfg.OperationTimeout = 2 * time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.Coordination.InstanceID = "test-instance"
	cfg.Coordination.LeaseTTL = 2 * time.Second
	cfg.Coordination.StatusInterval = 100 * time.Millisecond

	return cfg
}
