package notifications

import (
	"log/slog"
	"time"

	"talkhub/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10 // must stay below pongWait

	// Feed sockets are server-push; inbound frames are pongs and closes.
	maxInboundSize = 1024

	sendBuffer = 64
)

var droppedNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Client is one feed subscriber: a socket plus its outbound queue.
type Client struct {
	hub    *Hub
	UserID uuid.UUID

	// Conn is nil for clients registered without a socket (fan-out tests).
	Conn *websocket.Conn

	// Send is closed by the hub on unregister, which ends WritePump.
	Send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump keeps the read deadline alive on pongs and returns when the peer
// disconnects. It must run on the handler goroutine; on return the client is
// unregistered and the socket closed.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	extend := func() error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) }
	c.Conn.SetReadLimit(maxInboundSize)
	_ = extend()
	c.Conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, _, err := c.Conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			c.hub.logger.Warn("feed socket closed unexpectedly",
				slog.String("user_id", c.UserID.String()),
				slog.String("error", err.Error()),
			)
		}
		return
	}
}

// WritePump forwards queued events to the socket and pings the peer. Events
// that piled up while a write was in flight go out in the same wakeup.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, event); err != nil {
				return
			}
			for n := len(c.Send); n > 0; n-- {
				queued, ok := <-c.Send
				if !ok {
					_ = c.write(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.write(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.Conn.WriteMessage(messageType, data)
}

// TrySend queues an event without blocking the broadcaster. When the queue
// is full the event is dropped and, space permitting, a drop notice is queued
// so the client knows to refetch its feed.
func (c *Client) TrySend(event []byte) {
	// Send may already be closed by a concurrent unregister.
	defer func() {
		if recover() != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues("closed").Inc()
		}
	}()

	select {
	case c.Send <- event:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
	select {
	case c.Send <- droppedNotice:
	default:
	}
}
