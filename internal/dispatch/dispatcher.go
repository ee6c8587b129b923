package dispatch

import (
	"context"
	"fmt"

	"github.com/nerrad567/statebridge/internal/event"
	"github.com/nerrad567/statebridge/internal/filter"
)

// Publisher delivers one serialized event to a named broker topic.
//
// The implementation owns the broker connection, delivery acknowledgment,
// and any retry/backoff. A returned error means this topic's delivery
// attempt failed; it carries no implication for other topics.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, payload []byte) error
}

// FailureRecorder persists failed publish attempts for later inspection.
// Optional collaborator; see the journal package for the SQLite
// implementation.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, topic, entityID string, payload []byte, cause error) error
}

// MetricsSink records dispatch outcomes. Optional collaborator.
type MetricsSink interface {
	RecordDispatch(topic, entityID string, published bool)
	RecordPublishError(topic string)
}

// Logger is the minimal logging interface the dispatcher needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// TopicSpec names a topic and its optional filter as configured.
// A nil Filter inherits the global filter.
type TopicSpec struct {
	Name   string
	Filter *filter.Filter
}

// topic is a topic with its effective filter resolved.
type topic struct {
	name   string
	filter *filter.Filter
}

// Options configures a Dispatcher.
type Options struct {
	// Topics is the configured topic list, in configuration order.
	Topics []TopicSpec

	// GlobalFilter applies to topics without their own filter.
	// Nil means no global filter (such topics match everything).
	GlobalFilter *filter.Filter

	// Publisher delivers matched events. Required.
	Publisher Publisher

	// Journal records failed publish attempts. Optional.
	Journal FailureRecorder

	// Metrics records dispatch outcomes. Optional.
	Metrics MetricsSink

	// Logger receives per-topic failure logs. Optional.
	Logger Logger
}

// Dispatcher routes state-change events to matching topics.
//
// All fields are immutable after New; the Dispatcher is safe for concurrent
// use from multiple goroutines.
type Dispatcher struct {
	topics    []topic
	publisher Publisher
	journal   FailureRecorder
	metrics   MetricsSink
	logger    Logger
}

// New builds a Dispatcher, resolving every topic's effective filter once.
//
// Resolution order per topic: the topic's own filter if present, else the
// global filter if present, else match-all. Configuration order of topics is
// preserved for deterministic publish ordering and logging; it does not
// affect routing outcomes.
//
// Parameters:
//   - opts: Dispatcher collaborators and topic configuration
//
// Returns:
//   - *Dispatcher: Ready dispatcher
//   - error: If no topics are given, names collide, or the publisher is nil
func New(opts Options) (*Dispatcher, error) {
	if len(opts.Topics) == 0 {
		return nil, ErrNoTopics
	}
	if opts.Publisher == nil {
		return nil, ErrNilPublisher
	}

	topics := make([]topic, 0, len(opts.Topics))
	seen := make(map[string]struct{}, len(opts.Topics))
	for _, spec := range opts.Topics {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: empty topic name", ErrNoTopics)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTopic, spec.Name)
		}
		seen[spec.Name] = struct{}{}

		effective := spec.Filter
		if effective == nil {
			effective = opts.GlobalFilter
		}
		if effective == nil {
			effective = filter.MatchAll()
		}
		topics = append(topics, topic{name: spec.Name, filter: effective})
	}

	return &Dispatcher{
		topics:    topics,
		publisher: opts.Publisher,
		journal:   opts.Journal,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}, nil
}

// Matches returns the names of all topics whose effective filter passes the
// entity id, in configuration order. The result is deterministic and
// independent of scheduling.
func (d *Dispatcher) Matches(entityID string) []string {
	var names []string
	for _, t := range d.topics {
		if t.filter.Matches(entityID) {
			names = append(names, t.name)
		}
	}
	return names
}

// Topics returns the configured topic names in configuration order.
func (d *Dispatcher) Topics() []string {
	names := make([]string, len(d.topics))
	for i, t := range d.topics {
		names[i] = t.name
	}
	return names
}

// Dispatch routes one event to every topic whose effective filter passes.
//
// The event is serialized exactly once; every matching topic receives the
// same payload, keyed by entity id. Events without a publishable new state
// are skipped entirely. Publish failures are isolated per topic: each is
// logged, journaled and counted, and the remaining topics are still
// attempted. Failures do not surface as an error — the stream must not halt.
//
// Parameters:
//   - ctx: Context passed through to the publisher and journal
//   - ev: Decoded state-change event
//
// Returns:
//   - int: Number of topics the event was successfully published to
//   - error: Only for a malformed event that cannot be serialized
func (d *Dispatcher) Dispatch(ctx context.Context, ev *event.StateChange) (int, error) {
	if !ev.Publishable() {
		if d.logger != nil {
			d.logger.Debug("skipping non-publishable event", "entity_id", ev.EntityID)
		}
		return 0, nil
	}

	// Serialize once, share across all matching topics.
	payload, err := ev.Encode()
	if err != nil {
		return 0, fmt.Errorf("dispatching %s: %w", ev.EntityID, err)
	}
	key := []byte(ev.EntityID)

	published := 0
	for _, t := range d.topics {
		matched := t.filter.Matches(ev.EntityID)
		if d.metrics != nil {
			d.metrics.RecordDispatch(t.name, ev.EntityID, matched)
		}
		if !matched {
			continue
		}

		if pubErr := d.publisher.Publish(ctx, t.name, key, payload); pubErr != nil {
			d.handleFailure(ctx, t.name, ev.EntityID, payload, pubErr)
			continue
		}
		published++
	}

	return published, nil
}

// handleFailure logs, journals and counts one failed publish attempt.
func (d *Dispatcher) handleFailure(ctx context.Context, topicName, entityID string, payload []byte, cause error) {
	if d.logger != nil {
		d.logger.Error("publish failed",
			"topic", topicName,
			"entity_id", entityID,
			"error", cause,
		)
	}
	if d.metrics != nil {
		d.metrics.RecordPublishError(topicName)
	}
	if d.journal != nil {
		if err := d.journal.RecordFailure(ctx, topicName, entityID, payload, cause); err != nil && d.logger != nil {
			d.logger.Warn("journaling publish failure failed",
				"topic", topicName,
				"entity_id", entityID,
				"error", err,
			)
		}
	}
}
