package telemetry

import (
	"context"
	"log"
	"time"

	"chat-gateway/internal/observability"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// EventEmitter publishes message and connection lifecycle events so other
// services (notifications, archival) can follow the realtime stream.
type EventEmitter struct {
	publisher   Publisher
	service     string
	environment string
}

type EventEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	EventName     string `json:"event_name"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	Room          string `json:"room,omitempty"`
	Payload       any    `json:"payload,omitempty"`
}

func NewEventEmitter(publisher Publisher, service, environment string) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
	}
}

// EmitMessageEvent publishes a message lifecycle event (created, edited,
// deleted) for the given room. Routing key is chat.events.single or
// chat.events.group depending on the room kind.
func (e *EventEmitter) EmitMessageEvent(ctx context.Context, eventName, room, kind string, payload any) {
	e.emit(ctx, "chat.events."+kind, "message_events", eventName, room, payload)
}

// EmitWSEvent publishes a connection lifecycle event (connect, disconnect,
// write failure).
func (e *EventEmitter) EmitWSEvent(ctx context.Context, eventName string, payload any) {
	e.emit(ctx, "ws.events", "ws_events", eventName, "", payload)
}

func (e *EventEmitter) emit(ctx context.Context, routingKey, eventType, eventName, room string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventType:     eventType,
		EventName:     eventName,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		Room:          room,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, routingKey, envelope); err != nil {
		observability.IncAMQPPublishError()
		log.Printf("event publish failed: %v", err)
	}
}
