package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Home Assistant sentinel state values that suppress publishing.
// An entity in one of these states carries no usable reading.
const (
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// State is a snapshot of one entity at a point in time.
// It mirrors the state dictionary Home Assistant places on the event bus.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// StateChange is one state_changed event from the bus: the entity that
// changed plus its previous and new snapshots. OldState is nil for an
// entity's first ever state; NewState is nil when an entity is removed.
type StateChange struct {
	EntityID string `json:"entity_id"`
	OldState *State `json:"old_state"`
	NewState *State `json:"new_state"`
}

// Decode parses a state-change envelope from a raw bus payload.
//
// The entity id may appear on the envelope, on the new state, or both; an
// event carrying neither is structurally malformed and rejected.
//
// Parameters:
//   - payload: Raw JSON payload from the state bus
//
// Returns:
//   - *StateChange: Decoded event
//   - error: If the payload is not valid JSON or names no entity
func Decode(payload []byte) (*StateChange, error) {
	var ev StateChange
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if ev.EntityID == "" && ev.NewState != nil {
		ev.EntityID = ev.NewState.EntityID
	}
	if ev.EntityID == "" {
		return nil, fmt.Errorf("%w: missing entity_id", ErrMalformedEvent)
	}

	return &ev, nil
}

// Publishable reports whether the event carries a state worth forwarding.
//
// Events without a new state (entity removed) and events whose new state is
// unknown, unavailable or empty are suppressed before any filter runs.
func (e *StateChange) Publishable() bool {
	if e.NewState == nil {
		return false
	}
	switch e.NewState.State {
	case "", StateUnknown, StateUnavailable:
		return false
	}
	return true
}

// Encode serializes the new state as the wire payload.
//
// The dispatcher calls this exactly once per event; every matching topic
// receives the same bytes.
//
// Returns:
//   - []byte: JSON encoding of the new state
//   - error: If the event has no new state or marshalling fails
func (e *StateChange) Encode() ([]byte, error) {
	if e.NewState == nil {
		return nil, fmt.Errorf("%w: no new state to encode", ErrMalformedEvent)
	}
	payload, err := json.Marshal(e.NewState)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return payload, nil
}
