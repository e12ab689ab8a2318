package slotwise

import (
	"time"

	"github.com/arloliu/slotwise/categorize"
)

// Option configures a Pipeline with optional dependencies.
type Option func(*pipelineOptions)

// pipelineOptions holds optional Pipeline configuration.
type pipelineOptions struct {
	cfg      *Config
	strategy LayoutStrategy
	rules    []categorize.Rule
	metrics  MetricsCollector
	logger   Logger
	now      func() time.Time
	storeID  string
	degrade  *bool
}

// WithConfig applies StoreID, DegradeOnSourceError and the layout policy from cfg.
//
// Options given explicitly (WithStrategy, WithStoreID, WithDegradeOnSourceError)
// take precedence over the corresponding config fields.
//
// Parameters:
//   - cfg: Configuration (validated by NewPipeline)
//
// Returns:
//   - Option: Functional option for NewPipeline
func WithConfig(cfg *Config) Option {
	return func(o *pipelineOptions) {
		o.cfg = cfg
	}
}

// WithStrategy sets the layout strategy.
//
// Parameters:
//   - strategy: LayoutStrategy implementation
//
// Returns:
//   - Option: Functional option for NewPipeline
//
// Example:
//
//	s := strategy.NewZonePriority(strategy.WithFallbackOrder(slotwise.ZoneBack, slotwise.ZoneMiddle))
//	pipeline, err := slotwise.NewPipeline(events, slots, slotwise.WithStrategy(s))
func WithStrategy(strategy LayoutStrategy) Option {
	return func(o *pipelineOptions) {
		o.strategy = strategy
	}
}

// WithRules replaces the categorization rules.
//
// Rules are evaluated in order; the first match wins and unmatched items are Normal.
func WithRules(rules []categorize.Rule) Option {
	return func(o *pipelineOptions) {
		o.rules = rules
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewPipeline
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "slotwise")
//	pipeline, err := slotwise.NewPipeline(events, slots, slotwise.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *pipelineOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option for NewPipeline
func WithLogger(logger Logger) Option {
	return func(o *pipelineOptions) {
		o.logger = logger
	}
}

// WithClock sets the clock used for Result.GeneratedAt and run windows.
func WithClock(now func() time.Time) Option {
	return func(o *pipelineOptions) {
		o.now = now
	}
}

// WithStoreID sets the store id stamped on every result.
func WithStoreID(storeID string) Option {
	return func(o *pipelineOptions) {
		o.storeID = storeID
	}
}

// WithDegradeOnSourceError makes event source failures degrade to the identity layout.
func WithDegradeOnSourceError(degrade bool) Option {
	return func(o *pipelineOptions) {
		o.degrade = &degrade
	}
}

// RunnerOption configures a Runner with optional dependencies.
type RunnerOption func(*runnerOptions)

// runnerOptions holds optional Runner configuration.
type runnerOptions struct {
	hooks     *Hooks
	publisher LayoutPublisher
	lease     PublisherLease
	logger    Logger
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - RunnerOption: Functional option for NewRunner
//
// Example:
//
//	hooks := &slotwise.Hooks{
//	    OnLayoutChanged: func(ctx context.Context, result *slotwise.Result) error {
//	        return signage.Push(result.Layout.Mapping())
//	    },
//	}
//	runner, err := slotwise.NewRunner(&cfg, pipeline, slotwise.WithHooks(hooks))
func WithHooks(hooks *Hooks) RunnerOption {
	return func(o *runnerOptions) {
		o.hooks = hooks
	}
}

// WithPublisher sets the layout publisher.
//
// The runner publishes a result only when its layout fingerprint differs from
// the previously published one.
//
// Parameters:
//   - publisher: LayoutPublisher implementation (see NewKVLayoutStore)
//
// Returns:
//   - RunnerOption: Functional option for NewRunner
func WithPublisher(publisher LayoutPublisher) RunnerOption {
	return func(o *runnerOptions) {
		o.publisher = publisher
	}
}

// WithLease makes publishing conditional on holding a publisher lease.
//
// The runner acquires or renews the lease before each publish, identifying
// itself with Config.Coordination.InstanceID, and releases it on Stop. Replicas
// without the lease still compute results and notify subscribers.
//
// Parameters:
//   - lease: PublisherLease implementation (see NewKVLease)
//
// Returns:
//   - RunnerOption: Functional option for NewRunner
func WithLease(lease PublisherLease) RunnerOption {
	return func(o *runnerOptions) {
		o.lease = lease
	}
}

// WithRunnerLogger sets the runner logger. Defaults to the pipeline logger.
func WithRunnerLogger(logger Logger) RunnerOption {
	return func(o *runnerOptions) {
		o.logger = logger
	}
}
