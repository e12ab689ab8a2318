package slotwise

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/slotwise/internal/hooks"
	"github.com/arloliu/slotwise/internal/natsutil"
	"github.com/arloliu/slotwise/types"
)

// LayoutPublisher persists computed layouts.
type LayoutPublisher interface {
	// Publish writes the layout of result and returns the published version.
	Publish(ctx context.Context, result *Result) (int64, error)
}

// versionDiscoverer is implemented by publishers that resume version numbering from storage.
type versionDiscoverer interface {
	DiscoverHighestVersion(ctx context.Context) error
}

// Runner re-runs a Pipeline on a fixed cadence over a sliding event window.
//
// Each run's result is fanned out to subscribers. When the layout fingerprint
// changes the OnLayoutChanged hook fires, and the layout is published when a
// publisher is configured. With a publisher lease, only the lease holder
// publishes. Runs are serialized.
type Runner struct {
	cfg        Config
	pipeline   *Pipeline
	publisher  LayoutPublisher
	lease      types.PublisherLease
	instanceID string
	hooks      types.Hooks
	logger     types.Logger

	mu      sync.Mutex
	running bool
	stopped bool // set by Stop, cleared by Start; guards Subscribe
	cancel  context.CancelFunc
	done    chan struct{}

	// runMu serializes runs and guards the fingerprints below.
	runMu                sync.Mutex
	lastFingerprint      uint64
	hasLayout            bool
	publishedFingerprint uint64
	hasPublished         bool

	leaseHeld atomic.Bool

	latest           atomic.Pointer[types.Result]
	runs             atomic.Uint64
	subscribers      *xsync.Map[uint64, *resultSubscriber]
	nextSubscriberID atomic.Uint64
}

// NewRunner creates a runner for pipeline.
//
// The configuration is copied, zero fields are defaulted and the result is
// validated.
//
// Parameters:
//   - cfg: Runner configuration (Interval, Window, OperationTimeout, ...)
//   - pipeline: Pipeline to run
//   - opts: Optional configuration (WithHooks, WithPublisher, WithLease, WithRunnerLogger)
//
// Returns:
//   - *Runner: Initialized runner (not started)
//   - error: ErrPipelineRequired, or ErrInvalidConfig (also when the pipeline
//     stamps a store id other than cfg.StoreID)
//
// Example:
//
//	cfg := slotwise.DefaultConfig()
//	runner, err := slotwise.NewRunner(&cfg, pipeline, slotwise.WithPublisher(publisher))
//	if err != nil {
//	    return err
//	}
//	if err := runner.Start(ctx); err != nil {
//	    return err
//	}
//	defer runner.Stop(context.Background())
func NewRunner(cfg *Config, pipeline *Pipeline, opts ...RunnerOption) (*Runner, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}

	options := runnerOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	r := &Runner{
		cfg:         *cfg,
		pipeline:    pipeline,
		publisher:   options.publisher,
		lease:       options.lease,
		hooks:       hooks.WithDefaults(options.hooks),
		logger:      options.logger,
		subscribers: xsync.NewMap[uint64, *resultSubscriber](),
	}
	if r.logger == nil {
		r.logger = pipeline.logger
	}

	SetDefaults(&r.cfg)
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if pipeline.storeID != "" && pipeline.storeID != r.cfg.StoreID {
		return nil, fmt.Errorf("%w: pipeline store id %q does not match runner store id %q",
			ErrInvalidConfig, pipeline.storeID, r.cfg.StoreID)
	}
	r.cfg.ValidateWithWarnings(r.logger)
	r.instanceID = r.cfg.Coordination.ResolvedInstanceID()

	return r, nil
}

// Start begins periodic runs.
//
// The first run happens immediately in the background; later runs follow every
// Config.Interval. When the publisher supports it, the highest stored layout
// version is discovered before the first run.
//
// Parameters:
//   - ctx: Context bounding startup work (version discovery)
//
// Returns:
//   - error: ErrAlreadyStarted or a version discovery failure
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyStarted
	}

	if d, ok := r.publisher.(versionDiscoverer); ok {
		discoverCtx, cancel := context.WithTimeout(ctx, r.cfg.OperationTimeout)
		err := d.DiscoverHighestVersion(discoverCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to discover layout version: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	r.stopped = false

	go r.loop(runCtx, r.done)

	r.logger.Info("runner started",
		"store_id", r.cfg.StoreID,
		"interval", r.cfg.Interval,
		"window", r.cfg.Window,
		"strategy", r.cfg.Layout.Strategy,
		"instance_id", r.instanceID,
	)

	return nil
}

// Stop cancels periodic runs and waits for the in-flight run to finish.
//
// A held publisher lease is released and all subscriber channels are closed.
// Waiting is bounded by ctx and Config.ShutdownTimeout.
//
// Returns:
//   - error: ErrNotStarted, or the context error when waiting timed out
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()

		return ErrNotStarted
	}
	r.running = false
	r.stopped = true
	r.cancel()
	done := r.done
	r.mu.Unlock()

	if r.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ShutdownTimeout)
		defer cancel()
	}

	var stopErr error
	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("runner stop timed out waiting for in-flight run", "error", ctx.Err())
		stopErr = fmt.Errorf("runner stop: %w", ctx.Err())
	}

	r.releaseLease(ctx)

	r.subscribers.Range(func(id uint64, _ *resultSubscriber) bool {
		r.removeSubscriber(id)
		return true
	})

	r.logger.Info("runner stopped", "store_id", r.cfg.StoreID, "runs", r.runs.Load())

	return stopErr
}

// RunOnce runs the pipeline over the window ending now.
//
// Source failures are reported to the OnError hook and returned. A publish
// failure is reported and returned together with the computed result; the
// layout is published again on the next run.
//
// Parameters:
//   - ctx: Context for source queries, hooks and publishing
//
// Returns:
//   - *types.Result: Computed result (nil when a source failed)
//   - error: Source or publish failure
func (r *Runner) RunOnce(ctx context.Context) (*Result, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.runs.Add(1)

	opCtx, cancel := context.WithTimeout(ctx, r.cfg.OperationTimeout)
	defer cancel()

	window := types.WindowEndingAt(r.pipeline.Now(), r.cfg.Window)
	result, err := r.pipeline.Run(opCtx, window)
	if err != nil {
		r.reportError(ctx, err)
		return nil, err
	}
	if result.StoreID == "" {
		// Published layouts and status records share the runner's key space.
		result.StoreID = r.cfg.StoreID
	}

	r.latest.Store(result)
	r.broadcast(result)

	fingerprint := result.Layout.Fingerprint()
	if !r.hasLayout || fingerprint != r.lastFingerprint {
		r.logger.Info("layout changed",
			"store_id", result.StoreID,
			"fingerprint", fmt.Sprintf("%016x", fingerprint),
			"moves", len(result.Layout.Moves()),
		)
		r.lastFingerprint = fingerprint
		r.hasLayout = true

		if hookErr := r.hooks.OnLayoutChanged(ctx, result); hookErr != nil {
			r.logger.Error("OnLayoutChanged hook failed", "error", hookErr)
		}
	}

	if r.publisher == nil {
		return result, nil
	}

	if r.lease != nil {
		held, err := r.acquireLease(opCtx)
		if err != nil {
			r.reportError(ctx, err)
			return result, err
		}
		if !held {
			return result, nil
		}
	}

	if r.hasPublished && fingerprint == r.publishedFingerprint {
		return result, nil
	}

	version, err := r.publisher.Publish(opCtx, result)
	if err != nil {
		r.reportError(ctx, err)
		return result, err
	}
	r.publishedFingerprint = fingerprint
	r.hasPublished = true

	r.logger.Debug("layout version published", "store_id", result.StoreID, "version", version)

	return result, nil
}

// acquireLease acquires or renews the publisher lease.
//
// Must be called with runMu held. A replica that newly gains the lease
// republishes its current layout.
func (r *Runner) acquireLease(ctx context.Context) (bool, error) {
	held, err := r.lease.Acquire(ctx, r.instanceID)
	if err != nil {
		// A cancelled run leaves the lease as it was so Stop can release it.
		if ctx.Err() == nil {
			r.leaseHeld.Store(false)
		}
		if !errors.Is(err, ErrLease) {
			err = fmt.Errorf("%w: %w", ErrLease, err)
		}

		return false, err
	}

	wasHeld := r.leaseHeld.Swap(held)
	switch {
	case held && !wasHeld:
		r.logger.Info("publisher lease acquired", "store_id", r.cfg.StoreID, "instance_id", r.instanceID)
		r.hasPublished = false
	case !held && wasHeld:
		r.logger.Warn("publisher lease lost", "store_id", r.cfg.StoreID, "instance_id", r.instanceID)
	}

	return held, nil
}

func (r *Runner) releaseLease(ctx context.Context) {
	if r.lease == nil || !r.leaseHeld.Swap(false) {
		return
	}

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.OperationTimeout)
	defer cancel()

	if err := r.lease.Release(releaseCtx); err != nil && !errors.Is(err, ErrNotLeaseHolder) {
		r.logger.Warn("failed to release publisher lease", "store_id", r.cfg.StoreID, "error", err)
		return
	}
	r.logger.Info("publisher lease released", "store_id", r.cfg.StoreID, "instance_id", r.instanceID)
}

// Latest returns the most recent successful result, or nil before the first run.
func (r *Runner) Latest() *Result {
	return r.latest.Load()
}

// Runs returns the number of runs attempted since creation.
func (r *Runner) Runs() uint64 {
	return r.runs.Load()
}

// InstanceID returns the replica identity used for the publisher lease.
func (r *Runner) InstanceID() string {
	return r.instanceID
}

// Status returns a snapshot of the runner's progress for status reporting.
func (r *Runner) Status() RunnerStatus {
	status := types.RunnerStatus{
		InstanceID:  r.instanceID,
		StoreID:     r.cfg.StoreID,
		Runs:        r.runs.Load(),
		LeaseHolder: r.publisher != nil && (r.lease == nil || r.leaseHeld.Load()),
	}
	if latest := r.latest.Load(); latest != nil {
		status.LastRunAt = latest.GeneratedAt
		status.Fingerprint = fmt.Sprintf("%016x", latest.Layout.Fingerprint())
	}

	return status
}

// Subscribe returns a channel receiving every successful result.
//
// The latest result, when present, is delivered immediately. Slow subscribers
// miss results rather than blocking the runner. The channel is closed by the
// returned unsubscribe function or by Stop. Subscribing between Stop and the
// next Start returns a closed channel.
//
// Returns:
//   - <-chan *types.Result: Channel of results
//   - func(): Unsubscribe function
//
// Example:
//
//	results, unsubscribe := runner.Subscribe()
//	defer unsubscribe()
//	for result := range results {
//	    render(result.Layout)
//	}
func (r *Runner) Subscribe() (<-chan *Result, func()) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		ch := make(chan *types.Result)
		close(ch)

		return ch, func() {}
	}

	id := r.nextSubscriberID.Add(1)
	sub := &resultSubscriber{ch: make(chan *types.Result, r.cfg.SubscriberBuffer)}
	r.subscribers.Store(id, sub)
	r.mu.Unlock()

	if latest := r.latest.Load(); latest != nil {
		sub.trySend(latest)
	}

	return sub.ch, func() {
		r.removeSubscriber(id)
	}
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) broadcast(result *types.Result) {
	r.subscribers.Range(func(_ uint64, sub *resultSubscriber) bool {
		sub.trySend(result)
		return true
	})
}

func (r *Runner) removeSubscriber(id uint64) {
	if sub, ok := r.subscribers.LoadAndDelete(id); ok {
		sub.close()
	}
}

func (r *Runner) reportError(ctx context.Context, err error) {
	if ctx.Err() != nil {
		r.logger.Debug("run aborted", "store_id", r.cfg.StoreID, "error", err)
		return
	}

	if natsutil.IsConnectivityError(err) {
		r.logger.Warn("NATS unavailable, retrying next run", "store_id", r.cfg.StoreID, "error", err)
	} else {
		r.logger.Error("run failed", "store_id", r.cfg.StoreID, "error", err)
	}

	if hookErr := r.hooks.OnError(ctx, err); hookErr != nil {
		r.logger.Error("OnError hook failed", "error", hookErr)
	}
}

// resultSubscriber is a single fan-out target.
type resultSubscriber struct {
	ch     chan *types.Result
	mu     sync.Mutex
	closed bool
}

// trySend delivers result without blocking.
func (s *resultSubscriber) trySend(result *types.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	select {
	case s.ch <- result:
	default:
	}
}

func (s *resultSubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
