package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultWriteTimeout applies when config leaves write_timeout unset.
	defaultWriteTimeout = 5 * time.Second

	// defaultDialTimeout bounds transport dials and health check dials.
	defaultDialTimeout = 10 * time.Second

	// transportIdleTimeout is how long idle transport connections are kept.
	transportIdleTimeout = 45 * time.Second

	// tlsMinVersion is the minimum TLS version for SASL_SSL connections.
	tlsMinVersion = tls.VersionTLS12
)

// writer is the subset of kafka-go's Writer the producer uses.
// Narrowing to an interface keeps Publish testable without a broker.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer publishes serialized events to Kafka topics.
//
// A single Producer serves all configured topics; the topic is carried per
// message. It satisfies the dispatcher's Publisher interface.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Producer struct {
	cfg    config.KafkaConfig
	writer writer

	closed bool
	mu     sync.RWMutex
}

// Connect creates a Producer for the configured brokers.
//
// kafka-go writers dial lazily, so no connection is established here; use
// HealthCheck to verify broker reachability at startup.
//
// Parameters:
//   - cfg: Kafka configuration from config.yaml
//
// Returns:
//   - *Producer: Producer ready for use
//   - error: If no brokers are configured
func Connect(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	return &Producer{
		cfg:    cfg,
		writer: buildWriter(cfg),
	}, nil
}

// buildWriter constructs the kafka-go writer from bridge configuration.
//
// Acknowledgment is RequireAll: a publish only succeeds once every in-sync
// replica has the message. Combined with entity-id message keys this gives
// per-entity ordering within a topic.
func buildWriter(cfg config.KafkaConfig) *kafkago.Writer {
	writeTimeout := time.Duration(cfg.WriteTimeout) * time.Second
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Balancer:               &kafkago.Murmur2Balancer{},
		RequiredAcks:           kafkago.RequireAll,
		Async:                  false,
		WriteTimeout:           writeTimeout,
		MaxAttempts:            cfg.MaxAttempts,
		AllowAutoTopicCreation: cfg.AllowAutoTopic,
		Compression:            parseCompression(cfg.Compression),
	}

	if cfg.SecurityProtocol == config.SecuritySASLSSL {
		w.Transport = &kafkago.Transport{
			DialTimeout: defaultDialTimeout,
			IdleTimeout: transportIdleTimeout,
			ClientID:    cfg.ClientID,
			TLS:         &tls.Config{MinVersion: tlsMinVersion},
			SASL: plain.Mechanism{
				Username: cfg.Username,
				Password: cfg.Password,
			},
		}
	} else {
		w.Transport = &kafkago.Transport{
			DialTimeout: defaultDialTimeout,
			IdleTimeout: transportIdleTimeout,
			ClientID:    cfg.ClientID,
		}
	}

	return w
}

// parseCompression maps the configured codec name to a kafka-go codec.
// Defaults to gzip, the codec the upstream Home Assistant producer uses.
func parseCompression(name string) kafkago.Compression {
	switch name {
	case "none", "":
		return 0
	case "snappy":
		return kafkago.Snappy
	case "lz4":
		return kafkago.Lz4
	case "zstd":
		return kafkago.Zstd
	default:
		return kafkago.Gzip
	}
}

// Publish sends one payload to a topic, keyed for partition affinity.
//
// The write blocks until the broker acknowledges or the writer's timeout and
// retry budget are exhausted. Errors describe this topic's attempt only.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - topic: Destination Kafka topic
//   - key: Partition key (entity id)
//   - payload: Serialized event
//
// Returns:
//   - error: nil on acknowledged delivery, or wrapped error on failure
func (p *Producer) Publish(ctx context.Context, topic string, key, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	msg := kafkago.Message{
		Topic: topic,
		Key:   key,
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: topic %q: %w", ErrPublishFailed, topic, err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
// Publish calls after Close return ErrClosed.
//
// Returns:
//   - error: If closing the writer fails
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("closing kafka writer: %w", err)
	}
	return nil
}

// HealthCheck verifies at least the first broker is reachable.
//
// kafka-go writers connect lazily, so this dials explicitly to surface
// configuration problems at startup rather than on the first event.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if a broker connection succeeds
func (p *Producer) HealthCheck(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	dialer := &kafkago.Dialer{Timeout: defaultDialTimeout}
	if p.cfg.SecurityProtocol == config.SecuritySASLSSL {
		dialer.TLS = &tls.Config{MinVersion: tlsMinVersion}
		dialer.SASLMechanism = plain.Mechanism{
			Username: p.cfg.Username,
			Password: p.cfg.Password,
		}
	}

	conn, err := dialer.DialContext(ctx, "tcp", p.cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("kafka health check: %w", err)
	}
	return conn.Close()
}
