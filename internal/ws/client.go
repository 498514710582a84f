package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-gateway/internal/auth"
)

const sendBufferSize = 64

// ConnInfo carries handshake metadata kept for metrics and event publishing.
type ConnInfo struct {
	ConnID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Client is one live websocket connection owned by exactly one authenticated
// identity. Outbound frames go through the send channel so broadcasts never
// block on a slow socket.
type Client struct {
	Identity auth.Identity
	Info     ConnInfo

	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded connection with its authenticated identity.
func NewClient(conn *websocket.Conn, identity auth.Identity, info ConnInfo) *Client {
	return &Client{
		Identity: identity,
		Info:     info,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// writePump drains the send channel onto the socket. It exits when the
// client is closed or a write fails.
func (c *Client) writePump() {
	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("websocket write error conn=%s: %v", c.Info.ConnID, err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// enqueue places a frame on the send queue without blocking. It reports
// false when the client is closed or its queue is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// SendEvent emits a server event to this connection only.
func (c *Client) SendEvent(event string, data any) {
	frame, err := MarshalEvent(event, data)
	if err != nil {
		log.Printf("marshal %q event failed conn=%s: %v", event, c.Info.ConnID, err)
		return
	}
	if !c.enqueue(frame) {
		log.Printf("dropping %q event for saturated conn=%s", event, c.Info.ConnID)
	}
}

// SendError emits an error event to this connection only.
func (c *Client) SendError(message string) {
	c.SendEvent(EventError, ErrorPayload{Message: message})
}

// Close shuts the client down exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
