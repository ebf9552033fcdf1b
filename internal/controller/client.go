package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sharetube/partyqueue/pkg/wsrouter"
)

const (
	writeWait            = 10 * time.Second
	pongWait             = 60 * time.Second
	pingPeriod           = pongWait * 9 / 10
	defaultSendQueueSize = 64
)

// client is one websocket connection. Writes go through send so broadcasters
// never block on a socket; a client whose queue fills up is disconnected.
type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newClient(id string, conn *websocket.Conn, queueSize int, logger *slog.Logger) *client {
	return &client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *client) Id() string {
	return c.id
}

func (c *client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("send queue full, disconnecting client", "conn_id", c.id)
		c.close()
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("failed to write message", "conn_id", c.id, "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}

// readPump dispatches inbound frames until the connection fails.
func (c *client) readPump(ctx context.Context, router *wsrouter.WSRouter[*client], maxMessageSize int64) {
	defer c.close()

	if maxMessageSize > 0 {
		c.conn.SetReadLimit(maxMessageSize)
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.InfoContext(ctx, "websocket closed unexpectedly", "error", err)
			}
			return
		}

		router.Dispatch(ctx, c, data)
	}
}
