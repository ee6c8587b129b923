package event

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantErr    bool
		wantEntity string
	}{
		{
			name: "full envelope",
			payload: `{
				"entity_id": "sensor.sun_next_dusk",
				"old_state": {"entity_id": "sensor.sun_next_dusk", "state": "2026-08-24T19:02:00+00:00"},
				"new_state": {"entity_id": "sensor.sun_next_dusk", "state": "2026-08-25T19:00:00+00:00"}
			}`,
			wantEntity: "sensor.sun_next_dusk",
		},
		{
			name:       "entity id only on new state",
			payload:    `{"new_state": {"entity_id": "light.kitchen", "state": "on"}}`,
			wantEntity: "light.kitchen",
		},
		{
			name:       "no old state",
			payload:    `{"entity_id": "light.kitchen", "new_state": {"entity_id": "light.kitchen", "state": "on"}}`,
			wantEntity: "light.kitchen",
		},
		{
			name:    "missing entity id everywhere",
			payload: `{"new_state": {"state": "on"}}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			payload: `{"entity_id": `,
			wantErr: true,
		},
		{
			name:    "wrong type",
			payload: `{"entity_id": 42}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Decode() expected error, got nil")
				}
				if !errors.Is(err, ErrMalformedEvent) {
					t.Errorf("Decode() error = %v, want ErrMalformedEvent", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if ev.EntityID != tt.wantEntity {
				t.Errorf("EntityID = %q, want %q", ev.EntityID, tt.wantEntity)
			}
		})
	}
}

func TestStateChange_Publishable(t *testing.T) {
	tests := []struct {
		name  string
		event StateChange
		want  bool
	}{
		{
			name:  "regular state",
			event: StateChange{NewState: &State{State: "on"}},
			want:  true,
		},
		{
			name:  "nil new state",
			event: StateChange{NewState: nil},
			want:  false,
		},
		{
			name:  "unknown state",
			event: StateChange{NewState: &State{State: StateUnknown}},
			want:  false,
		},
		{
			name:  "unavailable state",
			event: StateChange{NewState: &State{State: StateUnavailable}},
			want:  false,
		},
		{
			name:  "empty state",
			event: StateChange{NewState: &State{State: ""}},
			want:  false,
		},
		{
			name:  "numeric-looking state",
			event: StateChange{NewState: &State{State: "21.5"}},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Publishable(); got != tt.want {
				t.Errorf("Publishable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateChange_Encode(t *testing.T) {
	changed := time.Date(2026, 8, 25, 18, 30, 0, 0, time.UTC)
	ev := StateChange{
		EntityID: "sensor.temperature_hall",
		NewState: &State{
			EntityID:    "sensor.temperature_hall",
			State:       "21.5",
			Attributes:  map[string]any{"unit_of_measurement": "°C"},
			LastChanged: changed,
			LastUpdated: changed,
		},
	}

	payload, err := ev.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// The payload must round-trip as the new state alone.
	var decoded State
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.EntityID != "sensor.temperature_hall" {
		t.Errorf("payload entity_id = %q, want %q", decoded.EntityID, "sensor.temperature_hall")
	}
	if decoded.State != "21.5" {
		t.Errorf("payload state = %q, want %q", decoded.State, "21.5")
	}

	// Timestamps are RFC 3339 on the wire.
	if !strings.Contains(string(payload), `"last_changed":"2026-08-25T18:30:00Z"`) {
		t.Errorf("payload missing RFC 3339 last_changed: %s", payload)
	}
}

func TestStateChange_Encode_NoNewState(t *testing.T) {
	ev := StateChange{EntityID: "light.kitchen"}
	if _, err := ev.Encode(); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("Encode() error = %v, want ErrMalformedEvent", err)
	}
}
