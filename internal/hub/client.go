package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ambulance-tracker/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one interactive viewer/reporter holding a persistent channel.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Envelope
}

// readPump consumes inbound events until the connection drops. Only
// location-report events are meaningful from clients; everything else is
// ignored so one misbehaving client cannot affect the others.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Client connection closed",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
			}
			return
		}

		if env.Type == EventLocationReport && env.Report != nil {
			c.hub.handleLocationReport(c.id, *env.Report)
			continue
		}

		logger.Debug("Ignoring unexpected client event",
			zap.String("client_id", c.id),
			zap.String("type", env.Type),
		)
	}
}

// writePump drains the send buffer onto the wire and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
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
