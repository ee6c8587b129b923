// statebridge - Home Assistant to Kafka state bridge
//
// statebridge consumes entity state-change events from a Home Assistant
// MQTT state bus and republishes each event to every configured Kafka topic
// whose filter it passes. Each topic carries its own optional filter; topics
// without one inherit the global filter.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/statebridge/internal/dispatch"
	"github.com/nerrad567/statebridge/internal/event"
	"github.com/nerrad567/statebridge/internal/filter"
	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/infrastructure/database"
	"github.com/nerrad567/statebridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/statebridge/internal/infrastructure/kafka"
	"github.com/nerrad567/statebridge/internal/infrastructure/logging"
	"github.com/nerrad567/statebridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/statebridge/internal/journal"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// journalPruneInterval is how often aged journal entries are deleted.
const journalPruneInterval = 12 * time.Hour

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting statebridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "topics", len(cfg.Topics))

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the failure journal (optional)
	var journalRepo *journal.Repository
	if cfg.Journal.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening journal database: %w", dbErr)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		journalRepo = journal.NewRepository(db.DB)
		if initErr := journalRepo.Init(ctx); initErr != nil {
			return fmt.Errorf("initialising journal: %w", initErr)
		}
		log.Info("journal ready", "path", cfg.Journal.Path)

		go pruneJournal(ctx, journalRepo, cfg.GetJournalRetention(), log)
	} else {
		log.Info("journal disabled")
	}

	// Create the Kafka producer
	producer, err := kafka.Connect(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("creating kafka producer: %w", err)
	}
	defer func() {
		log.Info("closing kafka producer")
		if closeErr := producer.Close(); closeErr != nil {
			log.Error("error closing kafka producer", "error", closeErr)
		}
	}()
	log.Info("kafka producer ready",
		"brokers", cfg.Kafka.Brokers,
		"security_protocol", cfg.Kafka.SecurityProtocol,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the dispatcher from compiled filters
	dispatcher, err := buildDispatcher(cfg, producer, journalRepo, influxClient, log)
	if err != nil {
		return fmt.Errorf("building dispatcher: %w", err)
	}
	log.Info("dispatcher ready", "topics", dispatcher.Topics())

	// Connect to the MQTT state bus
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Subscribe to the state-change event stream
	handler := eventHandler(ctx, dispatcher, log)
	if err := mqttClient.Subscribe(cfg.MQTT.EventTopic, byte(cfg.MQTT.QoS), handler); err != nil {
		return fmt.Errorf("subscribing to %s: %w", cfg.MQTT.EventTopic, err)
	}
	log.Info("subscribed to state bus", "topic", cfg.MQTT.EventTopic)

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, producer, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, bridging events")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("statebridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses STATEBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("STATEBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildDispatcher compiles all configured filters and assembles the dispatcher.
//
// Optional collaborators (journal, metrics) are only wired when enabled, so
// the dispatcher sees nil interfaces rather than typed-nil pointers.
//
// Parameters:
//   - cfg: Application configuration
//   - producer: Kafka producer (the Publisher collaborator)
//   - journalRepo: Failure journal, may be nil
//   - influxClient: Metrics sink, may be nil
//   - log: Logger instance
//
// Returns:
//   - *dispatch.Dispatcher: Ready dispatcher
//   - error: If any filter fails to compile
func buildDispatcher(cfg *config.Config, producer *kafka.Producer, journalRepo *journal.Repository, influxClient *influxdb.Client, log *logging.Logger) (*dispatch.Dispatcher, error) {
	globalFilter, err := compileFilter(cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("compiling global filter: %w", err)
	}

	topics := make([]dispatch.TopicSpec, 0, len(cfg.Topics))
	for _, tc := range cfg.Topics {
		topicFilter, err := compileFilter(tc.Filter)
		if err != nil {
			return nil, fmt.Errorf("compiling filter for topic %q: %w", tc.Topic, err)
		}
		topics = append(topics, dispatch.TopicSpec{
			Name:   tc.Topic,
			Filter: topicFilter,
		})
	}

	opts := dispatch.Options{
		Topics:       topics,
		GlobalFilter: globalFilter,
		Publisher:    producer,
		Logger:       log,
	}
	if journalRepo != nil {
		opts.Journal = journalRepo
	}
	if influxClient != nil {
		opts.Metrics = influxClient
	}

	return dispatch.New(opts)
}

// compileFilter compiles an optional filter descriptor.
// A nil descriptor stays nil (absent filter, inherits the global one).
func compileFilter(fc *config.FilterConfig) (*filter.Filter, error) {
	if fc == nil {
		return nil, nil
	}
	return filter.New(filter.Spec{
		IncludeEntities: fc.IncludeEntities,
		IncludeDomains:  fc.IncludeDomains,
		ExcludeEntities: fc.ExcludeEntities,
		ExcludeDomains:  fc.ExcludeDomains,
	})
}

// eventHandler returns the MQTT message handler feeding the dispatcher.
//
// Malformed payloads are logged and dropped; they must never halt the
// stream. Publish failures are handled inside the dispatcher.
func eventHandler(ctx context.Context, dispatcher *dispatch.Dispatcher, log *logging.Logger) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		ev, err := event.Decode(payload)
		if err != nil {
			log.Warn("dropping malformed event", "error", err)
			return nil
		}

		published, err := dispatcher.Dispatch(ctx, ev)
		if err != nil {
			return err
		}
		log.Debug("event dispatched",
			"entity_id", ev.EntityID,
			"published", published,
		)
		return nil
	}
}

// pruneJournal periodically deletes journal entries older than the
// retention period, until the context is cancelled.
func pruneJournal(ctx context.Context, repo *journal.Repository, retention time.Duration, log *logging.Logger) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(journalPruneInterval)
	defer ticker.Stop()

	for {
		deleted, err := repo.Prune(ctx, retention)
		if err != nil {
			log.Warn("journal prune failed", "error", err)
		} else if deleted > 0 {
			log.Info("journal pruned", "deleted", deleted)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check
//   - producer: Kafka producer to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, producer *kafka.Producer, influxClient *influxdb.Client) error {
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if err := producer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
