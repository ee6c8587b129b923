package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/statebridge/internal/dispatch"
	"github.com/nerrad567/statebridge/internal/event"
	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/infrastructure/logging"
)

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("STATEBRIDGE_CONFIG")
	defer os.Setenv("STATEBRIDGE_CONFIG", originalEnv)

	os.Unsetenv("STATEBRIDGE_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("STATEBRIDGE_CONFIG")
	defer os.Setenv("STATEBRIDGE_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("STATEBRIDGE_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("STATEBRIDGE_CONFIG")
	defer os.Setenv("STATEBRIDGE_CONFIG", originalEnv)

	os.Setenv("STATEBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_InvalidFilterPattern verifies startup fails on a malformed glob.
// Filter compilation happens before any broker connection is attempted,
// so this failure is deterministic.
func TestRun_InvalidFilterPattern(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
bridge:
  id: test-bridge

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
    client_id: "test-client"
  qos: 1
  event_topic: "homeassistant/events/state_changed"
  reconnect:
    initial_delay: 1
    max_delay: 5

kafka:
  brokers: ["127.0.0.1:9092"]

topics:
  - topic: home_assistant_all
    filter:
      include_entities:
        - "light.[unclosed"

journal:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("STATEBRIDGE_CONFIG")
	defer os.Setenv("STATEBRIDGE_CONFIG", originalEnv)
	os.Setenv("STATEBRIDGE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with malformed filter pattern")
	}
	if !strings.Contains(err.Error(), "dispatcher") {
		t.Errorf("error = %v, want dispatcher build failure", err)
	}
}

// memoryPublisher records publishes for eventHandler tests.
type memoryPublisher struct {
	published int
}

func (p *memoryPublisher) Publish(_ context.Context, _ string, _, _ []byte) error {
	p.published++
	return nil
}

func testDispatcher(t *testing.T, pub dispatch.Publisher) *dispatch.Dispatcher {
	t.Helper()
	d, err := dispatch.New(dispatch.Options{
		Topics:    []dispatch.TopicSpec{{Name: "home_assistant_all"}},
		Publisher: pub,
	})
	if err != nil {
		t.Fatalf("dispatch.New() error = %v", err)
	}
	return d
}

// TestEventHandler_MalformedPayload verifies malformed events are dropped
// without error so the stream is never halted.
func TestEventHandler_MalformedPayload(t *testing.T) {
	pub := &memoryPublisher{}
	handler := eventHandler(context.Background(), testDispatcher(t, pub), logging.Default())

	if err := handler("homeassistant/events/state_changed", []byte("{not json")); err != nil {
		t.Errorf("handler(malformed) error = %v, want nil", err)
	}
	if pub.published != 0 {
		t.Errorf("published = %d, want 0 for malformed payload", pub.published)
	}
}

// TestEventHandler_ValidEvent verifies a well-formed event reaches the producer.
func TestEventHandler_ValidEvent(t *testing.T) {
	pub := &memoryPublisher{}
	handler := eventHandler(context.Background(), testDispatcher(t, pub), logging.Default())

	payload := []byte(`{
		"entity_id": "light.kitchen",
		"new_state": {"entity_id": "light.kitchen", "state": "on"},
		"old_state": {"entity_id": "light.kitchen", "state": "off"}
	}`)
	if err := handler("homeassistant/events/state_changed", payload); err != nil {
		t.Fatalf("handler(valid) error = %v", err)
	}
	if pub.published != 1 {
		t.Errorf("published = %d, want 1", pub.published)
	}
}

// TestEventHandler_SuppressedState verifies unavailable states are skipped.
func TestEventHandler_SuppressedState(t *testing.T) {
	pub := &memoryPublisher{}
	handler := eventHandler(context.Background(), testDispatcher(t, pub), logging.Default())

	payload := []byte(`{
		"entity_id": "light.kitchen",
		"new_state": {"entity_id": "light.kitchen", "state": "` + event.StateUnavailable + `"}
	}`)
	if err := handler("homeassistant/events/state_changed", payload); err != nil {
		t.Fatalf("handler(suppressed) error = %v", err)
	}
	if pub.published != 0 {
		t.Errorf("published = %d, want 0 for unavailable state", pub.published)
	}
}

// TestCompileFilter_NilStaysNil verifies an absent filter compiles to nil
// so topic-level inheritance of the global filter works.
func TestCompileFilter_NilStaysNil(t *testing.T) {
	f, err := compileFilter(nil)
	if err != nil {
		t.Fatalf("compileFilter(nil) error = %v", err)
	}
	if f != nil {
		t.Error("compileFilter(nil) should return nil filter")
	}
}

// TestCompileFilter_Invalid verifies malformed patterns are rejected.
func TestCompileFilter_Invalid(t *testing.T) {
	_, err := compileFilter(&config.FilterConfig{
		IncludeEntities: []string{"light.[bad"},
	})
	if err == nil {
		t.Error("compileFilter() should reject malformed glob pattern")
	}
}
