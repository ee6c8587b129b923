package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kafka security protocols supported by the bridge.
const (
	SecurityPlaintext = "PLAINTEXT"
	SecuritySASLSSL   = "SASL_SSL"
)

// Config is the root configuration structure for statebridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Topics   []TopicConfig  `yaml:"topics"`
	Filter   *FilterConfig  `yaml:"filter"`
	Journal  JournalConfig  `yaml:"journal"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BridgeConfig identifies this bridge instance.
type BridgeConfig struct {
	ID string `yaml:"id"`
}

// MQTTConfig contains MQTT state-bus connection settings.
type MQTTConfig struct {
	Broker     MQTTBrokerConfig    `yaml:"broker"`
	Auth       MQTTAuthConfig      `yaml:"auth"`
	QoS        int                 `yaml:"qos"`
	EventTopic string              `yaml:"event_topic"`
	Reconnect  MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// KafkaConfig contains Kafka producer settings.
type KafkaConfig struct {
	Brokers          []string `yaml:"brokers"`
	ClientID         string   `yaml:"client_id"`
	SecurityProtocol string   `yaml:"security_protocol"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Compression      string   `yaml:"compression"`
	WriteTimeout     int      `yaml:"write_timeout"`
	MaxAttempts      int      `yaml:"max_attempts"`
	AllowAutoTopic   bool     `yaml:"allow_auto_topic_creation"`
}

// TopicConfig binds a Kafka topic to an optional filter.
//
// The filter pointer distinguishes two different configurations: a nil
// filter means "inherit the global filter", while a present-but-empty
// filter block means "capture everything" for this topic.
type TopicConfig struct {
	Topic  string        `yaml:"topic"`
	Filter *FilterConfig `yaml:"filter"`
}

// FilterConfig is the raw filter descriptor as it appears in YAML.
// Entries may be exact ids/domains or glob patterns (* and ?).
type FilterConfig struct {
	IncludeEntities []string `yaml:"include_entities"`
	IncludeDomains  []string `yaml:"include_domains"`
	ExcludeEntities []string `yaml:"exclude_entities"`
	ExcludeDomains  []string `yaml:"exclude_domains"`
}

// JournalConfig contains settings for the SQLite publish-failure journal.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
	RetainDays  int    `yaml:"retain_days"`
}

// InfluxDBConfig contains InfluxDB connection settings for dispatch metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: STATEBRIDGE_SECTION_KEY
// For example: STATEBRIDGE_MQTT_HOST, STATEBRIDGE_KAFKA_BROKERS
//
// Decoding is strict: unknown YAML fields are a fatal configuration error,
// so a misspelt filter key fails at startup instead of silently matching
// nothing during dispatch.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ID: "statebridge-01",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "statebridge",
			},
			QoS:        1,
			EventTopic: "homeassistant/events/state_changed",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Kafka: KafkaConfig{
			Brokers:          []string{"localhost:9092"},
			ClientID:         "statebridge",
			SecurityProtocol: SecurityPlaintext,
			Compression:      "gzip",
			WriteTimeout:     5,
			MaxAttempts:      3,
			AllowAutoTopic:   true,
		},
		Journal: JournalConfig{
			Enabled:     true,
			Path:        "./data/statebridge.db",
			WALMode:     true,
			BusyTimeout: 5,
			RetainDays:  14,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: STATEBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("STATEBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("STATEBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("STATEBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Kafka
	if v := os.Getenv("STATEBRIDGE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitAndTrim(v)
	}
	if v := os.Getenv("STATEBRIDGE_KAFKA_USERNAME"); v != "" {
		cfg.Kafka.Username = v
	}
	if v := os.Getenv("STATEBRIDGE_KAFKA_PASSWORD"); v != "" {
		cfg.Kafka.Password = v
	}

	// Journal
	if v := os.Getenv("STATEBRIDGE_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// InfluxDB
	if v := os.Getenv("STATEBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// splitAndTrim splits a comma-separated list and trims whitespace,
// dropping empty entries.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration for errors.
//
// Filter pattern syntax is not checked here; the filter package validates
// patterns when it compiles them, and startup fails either way.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Bridge validation
	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.EventTopic == "" {
		errs = append(errs, "mqtt.event_topic is required")
	}

	// Kafka validation
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, "kafka.brokers requires at least one broker address")
	}
	switch c.Kafka.SecurityProtocol {
	case SecurityPlaintext:
	case SecuritySASLSSL:
		if c.Kafka.Username == "" || c.Kafka.Password == "" {
			errs = append(errs, "kafka.username and kafka.password are required for SASL_SSL")
		}
	default:
		errs = append(errs, fmt.Sprintf("kafka.security_protocol must be %s or %s", SecurityPlaintext, SecuritySASLSSL))
	}

	// Topic validation
	if len(c.Topics) == 0 {
		errs = append(errs, "topics requires at least one topic")
	}
	seen := make(map[string]struct{}, len(c.Topics))
	for i, tc := range c.Topics {
		if tc.Topic == "" {
			errs = append(errs, fmt.Sprintf("topics[%d].topic is required", i))
			continue
		}
		if _, dup := seen[tc.Topic]; dup {
			errs = append(errs, fmt.Sprintf("topics[%d].topic %q is duplicated", i, tc.Topic))
		}
		seen[tc.Topic] = struct{}{}
	}

	// Journal validation
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set STATEBRIDGE_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetWriteTimeout returns the Kafka write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Kafka.WriteTimeout) * time.Second
}

// GetJournalRetention returns the journal retention period as a Duration.
func (c *Config) GetJournalRetention() time.Duration {
	return time.Duration(c.Journal.RetainDays) * 24 * time.Hour
}
