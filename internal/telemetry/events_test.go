package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-gateway/internal/mocks"
)

func TestEmitMessageEventRoutingKey(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEventEmitter(publisher, "chat-gateway", "test")

	publisher.On("Publish", mock.Anything, "chat.events.group", mock.MatchedBy(func(event any) bool {
		env, ok := event.(EventEnvelope)
		return ok &&
			env.SchemaVersion == 1 &&
			env.EventType == "message_events" &&
			env.EventName == "message_created" &&
			env.Room == "group:g1" &&
			env.Service == "chat-gateway" &&
			env.Environment == "test"
	})).Return(nil).Once()

	emitter.EmitMessageEvent(context.Background(), "message_created", "group:g1", "group", map[string]string{"id": "m1"})
	publisher.AssertExpectations(t)
}

func TestEmitWSEventRoutingKey(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEventEmitter(publisher, "chat-gateway", "test")

	publisher.On("Publish", mock.Anything, "ws.events", mock.MatchedBy(func(event any) bool {
		env, ok := event.(EventEnvelope)
		return ok && env.EventType == "ws_events" && env.EventName == "ws_connect" && env.Room == ""
	})).Return(nil).Once()

	emitter.EmitWSEvent(context.Background(), "ws_connect", map[string]string{"conn_id": "c1"})
	publisher.AssertExpectations(t)
}

func TestEmitSurvivesPublishError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := NewEventEmitter(publisher, "chat-gateway", "test")

	publisher.On("Publish", mock.Anything, "ws.events", mock.Anything).
		Return(context.DeadlineExceeded).Once()

	require.NotPanics(t, func() {
		emitter.EmitWSEvent(context.Background(), "ws_disconnect", nil)
	})
	publisher.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *EventEmitter
	require.NotPanics(t, func() {
		emitter.EmitMessageEvent(context.Background(), "message_created", "group:g1", "group", nil)
		emitter.EmitWSEvent(context.Background(), "ws_connect", nil)
	})
}
