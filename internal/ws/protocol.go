package ws

import (
	"encoding/json"
	"fmt"

	"chat-gateway/internal/models"
)

// Client -> server event names.
const (
	EventJoinChat      = "join_chat"
	EventLeaveChat     = "leave_chat"
	EventMessageSend   = "message:send"
	EventMessageEdit   = "message:edit"
	EventMessageDelete = "message:delete"
	EventTypingStart   = "typing:start"
	EventTypingStop    = "typing:stop"
)

// Server -> client event names. Typing events share the client-side names.
const (
	EventJoined         = "joined"
	EventMessageNew     = "message:new"
	EventMessageEdited  = "message:edited"
	EventMessageDeleted = "message:deleted"
	EventError          = "error"
)

// Envelope is the wire format in both directions: an event name plus a
// JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendPayload is the body of a message:send event.
type SendPayload struct {
	models.ChatTarget
	Content         string `json:"content"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
	MessageType     string `json:"messageType,omitempty"`
}

// EditPayload is the body of a message:edit event.
type EditPayload struct {
	models.ChatTarget
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

// DeletePayload is the body of a message:delete event.
type DeletePayload struct {
	models.ChatTarget
	MessageID string `json:"messageId"`
}

// JoinedPayload acknowledges a successful join with the resolved room.
type JoinedPayload struct {
	Room string `json:"room"`
}

// DeletedPayload announces a soft-deleted message to the room.
type DeletedPayload struct {
	MessageID string `json:"messageId"`
}

// TypingStartPayload identifies who started typing.
type TypingStartPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// TypingStopPayload identifies who stopped typing.
type TypingStopPayload struct {
	UserID string `json:"userId"`
}

// ErrorPayload carries a short human-readable error to the requesting
// connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ParseClientEvent decodes raw frame bytes into the typed payload for the
// carried event. Unknown events and malformed payloads are rejected before
// any authorization logic runs.
func ParseClientEvent(data []byte) (string, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return "", nil, fmt.Errorf("missing event name")
	}

	raw := env.Data
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var (
		payload any
		err     error
	)
	switch env.Event {
	case EventJoinChat, EventLeaveChat, EventTypingStart, EventTypingStop:
		var p models.ChatTarget
		err = json.Unmarshal(raw, &p)
		payload = p
	case EventMessageSend:
		var p SendPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case EventMessageEdit:
		var p EditPayload
		err = json.Unmarshal(raw, &p)
		payload = p
	case EventMessageDelete:
		var p DeletePayload
		err = json.Unmarshal(raw, &p)
		payload = p
	default:
		return env.Event, nil, fmt.Errorf("unknown event %q", env.Event)
	}
	if err != nil {
		return env.Event, nil, fmt.Errorf("decode %q payload: %w", env.Event, err)
	}
	return env.Event, payload, nil
}

// MarshalEvent encodes a server event into envelope bytes.
func MarshalEvent(event string, data any) ([]byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %q payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: body})
}
