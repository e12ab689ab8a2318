package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/source"
	"github.com/arloliu/slotwise/types"
)

// producer replays simulated shopper events into the event stream.
type producer struct {
	js       jetstream.JetStream
	prefix   string
	sim      *source.Simulated
	interval time.Duration
	logger   types.Logger
	sent     atomic.Int64
	started  atomic.Bool
}

func newProducer(
	js jetstream.JetStream,
	prefix string,
	slotIDs []string,
	seed uint64,
	interval time.Duration,
	logger types.Logger,
) *producer {
	if interval <= 0 {
		interval = time.Second
	}

	return &producer{
		js:       js,
		prefix:   prefix,
		sim:      source.NewSimulated(slotIDs, source.WithSeed(seed), source.WithEventsPerSlot(2)),
		interval: interval,
		logger:   logger,
	}
}

// Start publishes one batch per interval until ctx is cancelled.
//
// Each batch covers the time since the previous batch, so the stream sees a
// steady flow of events with realistic timestamps.
func (p *producer) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	defer p.started.Store(false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("producer stopped", "sent", p.sent.Load())
			return
		case now := <-ticker.C:
			if err := p.publishBatch(ctx, types.TimeRange{Start: last, End: now}); err != nil {
				p.logger.Warn("failed to publish simulated events", "error", err)
			}
			last = now
		}
	}
}

func (p *producer) publishBatch(ctx context.Context, window types.TimeRange) error {
	events, err := p.sim.ListEvents(ctx, window)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if err := source.PublishEvent(ctx, p.js, p.prefix, ev); err != nil {
			return err
		}
		p.sent.Add(1)
	}
	p.logger.Debug("published simulated events", "count", len(events))

	return nil
}
