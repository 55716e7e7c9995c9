// Package notify publishes recorded history events to an MQTT broker.
package notify

import (
	"encoding/json"
	"time"

	"aquastream/internal/models"
)

// DefaultTopic carries one message per recorded history event.
const DefaultTopic = "aquastream/events"

// Publisher sends history events to the event bus.
// Publish errors are reported but must never fail the caller's operation.
type Publisher interface {
	Publish(e models.HistoryEvent) error
	Close() error
}

// Payload is the MQTT message body.
type Payload struct {
	Event EventPayload `json:"event"`
}

type EventPayload struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Type      string   `json:"type"`
	Temp      *float64 `json:"temp,omitempty"`
	PH        *float64 `json:"ph,omitempty"`
	TDS       *float64 `json:"tds,omitempty"`
	Duration  *int     `json:"duration,omitempty"`
	Trigger   string   `json:"trigger,omitempty"`
}

// FormatPayload renders e as the JSON message body.
func FormatPayload(e models.HistoryEvent) ([]byte, error) {
	return json.Marshal(Payload{
		Event: EventPayload{
			ID:        e.ID,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			Type:      string(e.Type),
			Temp:      e.Temp,
			PH:        e.PH,
			TDS:       e.TDS,
			Duration:  e.Duration,
			Trigger:   string(e.Trigger),
		},
	})
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(models.HistoryEvent) error { return nil }
func (NopPublisher) Close() error { return nil }
