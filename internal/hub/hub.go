// Package hub implements the fan-out side of the broadcast protocol: one
// persistent websocket channel per interactive client, multiplexed by a
// single run loop. Delivery is at-most-once; the late-joiner snapshot
// replay is the only recovery mechanism.
package hub

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ambulance-tracker/internal/domain/tracking"
	"ambulance-tracker/internal/logger"
)

// Handlers are the callbacks the hub invokes on client activity. They are
// wired after construction because the use-case services broadcast through
// the hub themselves.
type Handlers struct {
	// Snapshot returns the registry state replayed to a late joiner.
	Snapshot func() []tracking.DeviceRecord

	// OnLocationReport is invoked for each inbound location-report.
	OnLocationReport func(clientID string, report ReportPayload)

	// OnDisconnect is invoked after a client's channel drops.
	OnDisconnect func(clientID string)
}

// Hub owns the set of connected clients and serializes all registration
// and fan-out in its run loop.
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	broadcast   chan Envelope
	clients     map[string]*Client
	handlers    Handlers
	clientCount atomic.Int64
	upgrader    websocket.Upgrader
}

func New() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Envelope, 256),
		clients:    make(map[string]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser viewers connect from file:// and LAN origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// SetHandlers must be called before Run.
func (h *Hub) SetHandlers(handlers Handlers) {
	h.handlers = handlers
}

// Run processes registration and fan-out until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			h.clientCount.Store(int64(len(h.clients)))

			// Reveal the assigned id, then replay the current registry
			// snapshot so the late joiner converges without waiting for
			// every device's next report.
			h.deliver(client, NewConnectionEstablished(client.id))
			if h.handlers.Snapshot != nil {
				for _, record := range h.handlers.Snapshot() {
					h.deliver(client, NewLocationUpdate(record))
				}
			}

			logger.Info("Client connected",
				zap.String("client_id", client.id),
				zap.Int("connected_clients", len(h.clients)),
			)

		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; !ok {
				continue
			}
			delete(h.clients, client.id)
			h.clientCount.Store(int64(len(h.clients)))
			close(client.send)

			logger.Info("Client disconnected",
				zap.String("client_id", client.id),
				zap.Int("connected_clients", len(h.clients)),
			)

			// The disconnect callback broadcasts the device removal back
			// through this loop, so it must not run inside it.
			if h.handlers.OnDisconnect != nil {
				go h.handlers.OnDisconnect(client.id)
			}

		case env := <-h.broadcast:
			for _, client := range h.clients {
				h.deliver(client, env)
			}

		case <-ctx.Done():
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.clientCount.Store(0)
			return
		}
	}
}

// deliver enqueues an event for one client. A client that cannot keep up
// loses the event; the channel has no retry semantics.
func (h *Hub) deliver(client *Client, env Envelope) {
	select {
	case client.send <- env:
	default:
		logger.Warn("Client send buffer full, dropping event",
			zap.String("client_id", client.id),
			zap.String("type", env.Type),
		)
	}
}

// ServeWS upgrades an HTTP request to a websocket client connection and
// assigns it a fresh session id.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	client := &Client{
		id:   uuid.New().String(),
		hub:  h,
		conn: conn,
		send: make(chan Envelope, sendBufferSize),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) handleLocationReport(clientID string, report ReportPayload) {
	if h.handlers.OnLocationReport != nil {
		h.handlers.OnLocationReport(clientID, report)
	}
}

// ClientCount returns the number of connected interactive clients.
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// BroadcastLocationUpdate fans an upserted record out to every client,
// the reporter included; reporters reconcile their own echo by id.
func (h *Hub) BroadcastLocationUpdate(record tracking.DeviceRecord) {
	h.enqueue(NewLocationUpdate(record))
}

// BroadcastDeviceRemoved fans a removal out to every client.
func (h *Hub) BroadcastDeviceRemoved(deviceID string) {
	h.enqueue(NewDeviceRemoved(deviceID))
}

// BroadcastNotification fans a queued notification out to every client.
func (h *Hub) BroadcastNotification(deviceID string, n tracking.Notification) {
	h.enqueue(NewNotificationCreated(deviceID, n))
}

func (h *Hub) enqueue(env Envelope) {
	select {
	case h.broadcast <- env:
	default:
		logger.Warn("Broadcast buffer full, dropping event",
			zap.String("type", env.Type),
		)
	}
}
