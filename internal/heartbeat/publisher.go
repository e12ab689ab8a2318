package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/types"
)

// DefaultKeyPrefix prefixes status keys.
const DefaultKeyPrefix = "status"

// Common errors for heartbeat operations.
var (
	ErrNotStarted     = errors.New("publisher not started")
	ErrAlreadyStarted = errors.New("publisher already started")
	ErrNoInstanceID   = errors.New("instance ID not set")
	ErrNoStatus       = errors.New("status function not set")
)

// StatusFunc returns the current runner status.
type StatusFunc func() types.RunnerStatus

// Publisher writes a runner status record to NATS KV at a fixed interval.
//
// The key is "{prefix}.{storeID}.{instanceID}". The bucket TTL should be about
// three intervals so the record of a crashed instance disappears on its own.
type Publisher struct {
	kv         jetstream.KeyValue
	prefix     string
	storeID    string
	instanceID string
	interval   time.Duration
	status     StatusFunc
	logger     types.Logger
	now        func() time.Time

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a new status publisher.
//
// Parameters:
//   - kv: JetStream KV bucket for status records
//   - storeID: Store the runner serves
//   - instanceID: Identity of this runner instance
//   - interval: Publish interval
//   - status: Function returning the current status
//   - logger: Logger (nil for no-op)
//
// Returns:
//   - *Publisher: New publisher (not started)
//
// Example:
//
//	kv, _ := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
//	    Bucket: "slotwise-status",
//	    TTL:    15 * time.Second, // 3x interval
//	})
//	publisher := heartbeat.New(kv, "store-001", "replica-a", 5*time.Second, runner.Status, logger)
func New(
	kv jetstream.KeyValue,
	storeID string,
	instanceID string,
	interval time.Duration,
	status StatusFunc,
	logger types.Logger,
) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Publisher{
		kv:         kv,
		prefix:     DefaultKeyPrefix,
		storeID:    storeID,
		instanceID: instanceID,
		interval:   interval,
		status:     status,
		logger:     logger,
		now:        time.Now,
	}
}

// Key returns the KV key of this instance's status record.
func (p *Publisher) Key() string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, p.storeID, p.instanceID)
}

// Start publishes the first status immediately, then every interval until Stop.
//
// Parameters:
//   - ctx: Context for the initial publish
//
// Returns:
//   - error: ErrAlreadyStarted, ErrNoInstanceID, ErrNoStatus, or the initial publish failure
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	if p.instanceID == "" {
		return ErrNoInstanceID
	}
	if p.status == nil {
		return ErrNoStatus
	}

	if err := p.publish(ctx); err != nil {
		return fmt.Errorf("failed to publish initial status: %w", err)
	}

	p.started = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.publishLoop(p.stopCh, p.doneCh)

	return nil
}

// Stop stops publishing and deletes the status record.
//
// Blocks until the publisher goroutine exits. The record is deleted so readers
// see the shutdown without waiting for the TTL.
//
// Returns:
//   - error: ErrNotStarted if not running, or the delete failure
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}
	close(p.stopCh)
	done := p.doneCh
	p.started = false
	p.mu.Unlock()

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.kv.Delete(ctx, p.Key()); err != nil {
		return fmt.Errorf("stopped but failed to delete status: %w", err)
	}

	return nil
}

// IsStarted reports whether the publisher is running.
func (p *Publisher) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.started
}

func (p *Publisher) publishLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			err := p.publish(ctx)
			cancel()

			if err != nil {
				p.logger.Warn("failed to publish runner status", "key", p.Key(), "error", err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context) error {
	status := p.status()
	status.InstanceID = p.instanceID
	status.StoreID = p.storeID
	status.ReportedAt = p.now()

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if _, err := p.kv.Put(ctx, p.Key(), data); err != nil {
		return fmt.Errorf("failed to publish status for %s: %w", p.instanceID, err)
	}

	return nil
}
