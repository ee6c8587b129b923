package logging

import (
	"log/slog"
	"testing"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	formats := []string{"json", "text", ""}
	for _, format := range formats {
		log := New(config.LoggingConfig{
			Level:  "debug",
			Format: format,
			Output: "stderr",
		}, "test")
		if log == nil || log.Logger == nil {
			t.Fatalf("New() returned nil logger for format %q", format)
		}
	}
}

func TestWith(t *testing.T) {
	log := Default()
	derived := log.With("component", "test")
	if derived == nil || derived.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if derived == log {
		t.Error("With() should return a new logger")
	}
}
