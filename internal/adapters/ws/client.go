package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// A connection silent for longer than pongWait is considered dead and
	// dropped.
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 8 * 1024
	sendBufferSize = 32
)

type connState int

const (
	stateConnected connState = iota
	stateJoined
	stateDisconnected
)

// client is one websocket connection with its explicit state machine:
// connected -> joined(sessionID) -> disconnected. Outbound events go through
// the typed send queue; the write pump is the only goroutine touching the
// connection for writes.
type client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan Envelope
	identity string

	state     connState
	sessionID string

	// sendMu serializes enqueue against closeSend: a broadcast from another
	// connection's read loop may race the disconnect of this one, and a send
	// on the just-closed channel would panic that other goroutine.
	sendMu sync.Mutex
	closed bool
}

// enqueue hands an event to the client's write pump without blocking: a
// member that cannot keep up loses events rather than stalling the room, and
// a member already gone swallows them.
func (c *client) enqueue(env Envelope) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- env:
		return true
	default:
		return false
	}
}

// closeSend shuts the send queue down exactly once. Safe to call repeatedly.
func (c *client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws_read_failed", "identity", c.identity, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.enqueue(newEnvelope(EventError, errorPayload{Message: "malformed event"}))
			continue
		}
		c.hub.handleEvent(c, env)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
