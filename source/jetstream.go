package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/slotwise/internal/logging"
	"github.com/arloliu/slotwise/types"
)

// DefaultEventSubjectPrefix is the subject prefix events are published under.
//
// Events for a slot use the subject "<prefix>.<slot token>".
const DefaultEventSubjectPrefix = "slotwise.events"

// JetStream reads behavioral events from a NATS JetStream stream.
//
// Each ListEvents call creates a short-lived ordered consumer starting at the
// window start and drains it until no messages are pending. Events are JSON
// encoded types.Event values. Events without a timestamp take the message's
// stream timestamp.
type JetStream struct {
	js            jetstream.JetStream
	stream        string
	subjectPrefix string
	batchSize     int
	maxWait       time.Duration
	logger        types.Logger
}

var _ types.EventSource = (*JetStream)(nil)

// JetStreamOption configures a JetStream event source.
type JetStreamOption func(*JetStream)

// WithSubjectPrefix sets the subject prefix used to filter the stream.
func WithSubjectPrefix(prefix string) JetStreamOption {
	return func(s *JetStream) {
		if prefix != "" {
			s.subjectPrefix = prefix
		}
	}
}

// WithFetchBatch sets the number of messages requested per fetch and the
// maximum time to wait for a batch.
func WithFetchBatch(size int, maxWait time.Duration) JetStreamOption {
	return func(s *JetStream) {
		if size > 0 {
			s.batchSize = size
		}
		if maxWait > 0 {
			s.maxWait = maxWait
		}
	}
}

// WithJetStreamLogger sets the logger.
func WithJetStreamLogger(logger types.Logger) JetStreamOption {
	return func(s *JetStream) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewJetStream creates an event source reading from stream.
//
// Parameters:
//   - js: JetStream context
//   - stream: Name of the stream holding the events
//   - opts: Optional configuration (WithSubjectPrefix, WithFetchBatch, WithJetStreamLogger)
//
// Returns:
//   - *JetStream: Initialized event source
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	events := source.NewJetStream(js, "SLOT_EVENTS")
//	pipeline, err := slotwise.NewPipeline(events, slots)
func NewJetStream(js jetstream.JetStream, stream string, opts ...JetStreamOption) *JetStream {
	s := &JetStream{
		js:            js,
		stream:        stream,
		subjectPrefix: DefaultEventSubjectPrefix,
		batchSize:     256,
		maxWait:       500 * time.Millisecond,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ListEvents returns the events inside window.
//
// Parameters:
//   - ctx: Context for cancellation
//   - window: Time window; the start bounds the consumer, the end filters events
//
// Returns:
//   - []types.Event: Events in stream order
//   - error: Stream access failure
func (s *JetStream) ListEvents(ctx context.Context, window types.TimeRange) ([]types.Event, error) {
	stream, err := s.js.Stream(ctx, s.stream)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream %s: %w", s.stream, err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream info: %w", err)
	}
	if info.State.Msgs == 0 {
		return []types.Event{}, nil
	}

	cfg := jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{s.subjectPrefix + ".>"},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	}
	if !window.Start.IsZero() {
		start := window.Start
		cfg.DeliverPolicy = jetstream.DeliverByStartTimePolicy
		cfg.OptStartTime = &start
	}

	cons, err := stream.OrderedConsumer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ordered consumer: %w", err)
	}

	events := make([]types.Event, 0, s.batchSize)
	skipped := 0
	for {
		batch, err := cons.Fetch(s.batchSize, jetstream.FetchMaxWait(s.maxWait))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}

		received := 0
		pending := uint64(1)
		for msg := range batch.Messages() {
			received++

			md, err := msg.Metadata()
			if err == nil {
				pending = md.NumPending
			}

			var ev types.Event
			if err := json.Unmarshal(msg.Data(), &ev); err != nil {
				skipped++
				s.logger.Debug("skipping undecodable event", "subject", msg.Subject(), "error", err)

				continue
			}
			if ev.Timestamp.IsZero() && md != nil {
				ev.Timestamp = md.Timestamp
			}
			if window.Contains(ev.Timestamp) {
				events = append(events, ev)
			}
		}
		if err := batch.Error(); err != nil && !errors.Is(err, jetstream.ErrNoMessages) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to fetch events: %w", err)
		}

		if received == 0 || pending == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if skipped > 0 {
		s.logger.Warn("skipped undecodable events", "stream", s.stream, "count", skipped)
	}

	return events, nil
}

// PublishEvent publishes ev to the stream subject for its slot.
//
// Parameters:
//   - ctx: Context for cancellation
//   - js: JetStream context
//   - prefix: Subject prefix ("" selects DefaultEventSubjectPrefix)
//   - ev: Event to publish
//
// Returns:
//   - error: Marshal or publish failure
func PublishEvent(ctx context.Context, js jetstream.JetStream, prefix string, ev types.Event) error {
	if prefix == "" {
		prefix = DefaultEventSubjectPrefix
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := js.Publish(ctx, EventSubject(prefix, ev.SlotID), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// EventSubject returns the subject for events of slotID.
//
// Characters that are not valid in a subject token are replaced with '_'.
func EventSubject(prefix, slotID string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}

		return r
	}, slotID)
	if token == "" {
		token = "_"
	}

	return prefix + "." + token
}
