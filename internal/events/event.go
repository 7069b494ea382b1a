package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "training-service"
	EventVersion = "1.0"
)

// Event types double as topic names
const (
	TypeModuleCompleted = "training.module_completed"
	TypeSessionChanged  = "identity.session_changed"
)

// Event is the envelope put on the bus
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent stamps a fresh envelope around data
func NewEvent(eventType string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event data: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}, nil
}

// Decode unmarshals the payload into dest
func (e *Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", e.Type, err)
	}
	return nil
}

// ModuleCompletedData is published once a progress row reaches 100%
type ModuleCompletedData struct {
	UserID      string    `json:"user_id"`
	ModuleID    string    `json:"module_id"`
	ProgressID  string    `json:"progress_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// SessionChangedData is published on sign in and sign out
type SessionChangedData struct {
	UserID string    `json:"user_id"`
	Change string    `json:"change"`
	At     time.Time `json:"at"`
}
