package websocket

import (
	"sync"

	"github.com/gorilla/websocket"

	"peertrade/pkg/logger"
)

// Client represents one live connection. A user may hold several clients
// (multiple tabs/devices); each gets its own connection id.
type Client struct {
	ConnID   string
	UserID   string
	Username string
	Conn     *websocket.Conn
	Send     chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues payload for the write pump. It reports false when the
// buffer is full or the client is already closed; a broadcast that raced a
// disconnect must degrade to a dropped payload, never a send on a closed
// channel.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. It holds the same lock as
// trySend, so no payload can land after the close.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// ReadPump reads inbound frames until the connection drops and hands them to
// the manager's protocol dispatch.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket: read error for user %s: %v", c.UserID, err)
			}
			break
		}

		m.HandleClientMessage(c, message)
	}
}

// WritePump drains the send channel onto the connection. Closing Send ends
// the pump with a close frame.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("websocket: write error for user %s: %v", c.UserID, err)
			return
		}
	}
}
