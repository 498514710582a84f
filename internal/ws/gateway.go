package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-gateway/internal/access"
	"chat-gateway/internal/auth"
	"chat-gateway/internal/models"
	"chat-gateway/internal/observability"
	"chat-gateway/internal/repositories"
	"chat-gateway/internal/telemetry"
)

const (
	msgProvideTarget           = "Provide exactly one of singleChatId or groupId"
	msgProvideTargetAndContent = "Provide exactly one of singleChatId or groupId and content"
	msgContentRequired         = "Content is required"
	msgForbidden               = "Forbidden"
	msgChatNotFound            = "Chat not found"
	msgMessageOrChatNotFound   = "Message or chat not found"
	msgUnauthorized            = "Unauthorized"
	msgSendFailed              = "Failed to send message"
	msgEditFailed              = "Failed to edit message"
	msgDeleteFailed            = "Failed to delete message"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway is the realtime messaging core: it authenticates connections,
// routes join/leave requests through the membership authority, orchestrates
// message create/edit/soft-delete against storage, and fans results out to
// room subscribers.
type Gateway struct {
	hub       *Hub
	authority *access.Authority
	messages  repositories.MessageRepository
	verifier  *auth.Verifier
	emitter   *telemetry.EventEmitter
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, authority *access.Authority, messages repositories.MessageRepository, verifier *auth.Verifier, emitter *telemetry.EventEmitter) *Gateway {
	return &Gateway{
		hub:       hub,
		authority: authority,
		messages:  messages,
		verifier:  verifier,
		emitter:   emitter,
	}
}

// Handle authenticates the handshake, upgrades the connection and runs the
// read loop. A missing or invalid credential refuses the connection before
// any event is processed.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-gateway/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := auth.FromAuthorizationHeader(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}

	identity, err := g.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorized})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, identity, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.emitter.EmitWSEvent(ctx, "ws_connect", connPayload(client, ""))

	go client.writePump()
	g.readLoop(ctx, client)
}

func (g *Gateway) readLoop(ctx context.Context, client *Client) {
	var closeReason string
	defer func() {
		g.hub.UnsubscribeAll(client)
		client.Close()
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		g.emitter.EmitWSEvent(ctx, "ws_disconnect", connPayload(client, closeReason))
	}()

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			return
		}
		g.dispatch(ctx, client, data)
	}
}

// dispatch validates the frame at the boundary and routes it to the event
// handler. Malformed or unrecognized frames earn an error emission to the
// sender; they never reach authorization or storage.
func (g *Gateway) dispatch(ctx context.Context, client *Client, data []byte) {
	event, payload, err := ParseClientEvent(data)
	if err != nil {
		client.SendError(msgProvideTarget)
		return
	}
	observability.IncWSEvent(event)

	switch event {
	case EventJoinChat:
		g.handleJoin(ctx, client, payload.(models.ChatTarget))
	case EventLeaveChat:
		g.handleLeave(client, payload.(models.ChatTarget))
	case EventMessageSend:
		g.handleMessageSend(ctx, client, payload.(SendPayload))
	case EventMessageEdit:
		g.handleMessageEdit(ctx, client, payload.(EditPayload))
	case EventMessageDelete:
		g.handleMessageDelete(ctx, client, payload.(DeletePayload))
	case EventTypingStart:
		g.handleTyping(ctx, client, payload.(models.ChatTarget), true)
	case EventTypingStop:
		g.handleTyping(ctx, client, payload.(models.ChatTarget), false)
	}
}

func (g *Gateway) handleJoin(ctx context.Context, client *Client, target models.ChatTarget) {
	if !target.Valid() {
		client.SendError(msgProvideTarget)
		return
	}
	if err := g.authority.Authorize(ctx, client.Identity.UserID, target); err != nil {
		client.SendError(authErrorMessage(err, msgChatNotFound, msgUnauthorized))
		return
	}
	room := target.Room()
	g.hub.Subscribe(room, client)
	client.SendEvent(EventJoined, JoinedPayload{Room: room})
}

// handleLeave unsubscribes unconditionally; leaving a room needs no
// membership re-check.
func (g *Gateway) handleLeave(client *Client, target models.ChatTarget) {
	if !target.Valid() {
		client.SendError(msgProvideTarget)
		return
	}
	g.hub.Unsubscribe(target.Room(), client)
}

func (g *Gateway) handleMessageSend(ctx context.Context, client *Client, p SendPayload) {
	if !p.Valid() {
		client.SendError(msgProvideTarget)
		return
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		client.SendError(msgContentRequired)
		return
	}
	if err := g.authority.Authorize(ctx, client.Identity.UserID, p.ChatTarget); err != nil {
		client.SendError(authErrorMessage(err, msgChatNotFound, msgSendFailed))
		return
	}

	params := repositories.CreateMessageParams{
		SenderID:    client.Identity.UserID,
		Content:     content,
		MessageType: p.MessageType,
	}
	if p.IsSingle() {
		params.SingleChatID = &p.SingleChatID
	} else {
		params.GroupID = &p.GroupID
	}
	if p.ParentMessageID != "" {
		params.ParentMessageID = &p.ParentMessageID
	}

	created, err := g.messages.CreateMessage(ctx, params)
	if err != nil {
		client.SendError(msgSendFailed)
		return
	}
	view, err := g.messages.GetMessageView(ctx, created.ID)
	if err != nil {
		client.SendError(msgSendFailed)
		return
	}

	g.broadcast(p.ChatTarget, EventMessageNew, view)
	g.emitter.EmitMessageEvent(ctx, "message_created", p.Room(), p.Kind(), view)
}

func (g *Gateway) handleMessageEdit(ctx context.Context, client *Client, p EditPayload) {
	if !p.Valid() || strings.TrimSpace(p.Content) == "" {
		client.SendError(msgProvideTargetAndContent)
		return
	}

	msg, err := g.messages.GetMessage(ctx, p.MessageID)
	if err != nil {
		client.SendError(messageErrorMessage(err, msgEditFailed))
		return
	}
	// Ownership first: only the original sender may edit, no matter how
	// valid their room membership is.
	if msg.SenderID != client.Identity.UserID {
		client.SendError(msgForbidden)
		return
	}
	if err := g.authority.Authorize(ctx, client.Identity.UserID, p.ChatTarget); err != nil {
		client.SendError(authErrorMessage(err, msgMessageOrChatNotFound, msgEditFailed))
		return
	}

	if err := g.messages.UpdateMessageContent(ctx, p.MessageID, strings.TrimSpace(p.Content)); err != nil {
		client.SendError(messageErrorMessage(err, msgEditFailed))
		return
	}
	view, err := g.messages.GetMessageView(ctx, p.MessageID)
	if err != nil {
		client.SendError(msgEditFailed)
		return
	}

	g.broadcast(p.ChatTarget, EventMessageEdited, view)
	g.emitter.EmitMessageEvent(ctx, "message_edited", p.Room(), p.Kind(), view)
}

func (g *Gateway) handleMessageDelete(ctx context.Context, client *Client, p DeletePayload) {
	if !p.Valid() {
		client.SendError(msgProvideTarget)
		return
	}

	msg, err := g.messages.GetMessage(ctx, p.MessageID)
	if err != nil {
		client.SendError(messageErrorMessage(err, msgDeleteFailed))
		return
	}
	if msg.SenderID != client.Identity.UserID {
		client.SendError(msgForbidden)
		return
	}
	if err := g.authority.Authorize(ctx, client.Identity.UserID, p.ChatTarget); err != nil {
		client.SendError(authErrorMessage(err, msgMessageOrChatNotFound, msgDeleteFailed))
		return
	}

	if err := g.messages.SoftDeleteMessage(ctx, p.MessageID); err != nil {
		client.SendError(messageErrorMessage(err, msgDeleteFailed))
		return
	}

	g.broadcast(p.ChatTarget, EventMessageDeleted, DeletedPayload{MessageID: p.MessageID})
	g.emitter.EmitMessageEvent(ctx, "message_deleted", p.Room(), p.Kind(), DeletedPayload{MessageID: p.MessageID})
}

// handleTyping is best-effort: invalid targets and authorization failures
// no-op silently, and the sender's own connection never receives the signal.
func (g *Gateway) handleTyping(ctx context.Context, client *Client, target models.ChatTarget, start bool) {
	if !target.Valid() {
		return
	}
	if err := g.authority.Authorize(ctx, client.Identity.UserID, target); err != nil {
		return
	}

	room := target.Room()
	if start {
		g.hub.BroadcastExcept(room, client, EventTypingStart, TypingStartPayload{
			UserID:   client.Identity.UserID,
			Username: client.Identity.Username,
		})
	} else {
		g.hub.BroadcastExcept(room, client, EventTypingStop, TypingStopPayload{
			UserID: client.Identity.UserID,
		})
	}
	observability.IncWSBroadcast(typingEventName(start), target.Kind())
}

func (g *Gateway) broadcast(target models.ChatTarget, event string, data any) {
	g.hub.Broadcast(target.Room(), event, data)
	observability.IncWSBroadcast(event, target.Kind())
}

func authErrorMessage(err error, notFoundMsg, fallback string) string {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return msgForbidden
	case errors.Is(err, access.ErrNotFound):
		return notFoundMsg
	default:
		return fallback
	}
}

func messageErrorMessage(err error, fallback string) string {
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return msgMessageOrChatNotFound
	}
	return fallback
}

func typingEventName(start bool) string {
	if start {
		return EventTypingStart
	}
	return EventTypingStop
}

func connPayload(client *Client, reason string) map[string]any {
	return map[string]any{
		"conn_id":     client.Info.ConnID,
		"user_id":     client.Identity.UserID,
		"device_id":   client.Info.DeviceID,
		"ip":          client.Info.IP,
		"duration_ms": time.Since(client.Info.ConnectedAt).Milliseconds(),
		"reason":      reason,
	}
}
