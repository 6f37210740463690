package ws

import (
	"sync"
	"time"

	"matchhub/internal/coordinator"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

type Client struct {
	id       string
	conn     *websocket.Conn
	identity coordinator.Identity

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(id string, conn *websocket.Conn, ident coordinator.Identity, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{id: id, conn: conn, identity: ident, send: make(chan []byte, buffer)}
}

// enqueue never blocks. A full queue means the peer is not keeping up; the
// client is closed and goes through the disconnect path.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.closed = true
		close(c.send)
		droppedClients.Add(1)
		log.Warn().Str("conn_id", c.id).Msg("ws_send_queue_overflow")
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) writeLoop(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Str("conn_id", c.id).Msg("ws_write_failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("conn_id", c.id).Msg("ws_ping_failed")
				return
			}
		}
	}
}
