package wshub

import (
	"context"
	"errors"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected = errors.New("client not connected")
	ErrBufferFull   = errors.New("client send buffer full")
)

// SendBuffer is the number of packets queued per client before sends fail.
const SendBuffer = 64

// Client represents a single WebSocket connection in the hub.
type Client struct {
	UID  uint16
	Conn *websocket.Conn
	Send chan []byte
}

func NewClient(uid uint16, conn *websocket.Conn) *Client {
	return &Client{
		UID:  uid,
		Conn: conn,
		Send: make(chan []byte, SendBuffer),
	}
}

// WritePump reads from the Send channel and writes binary frames to the connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageBinary, msg); err != nil {
				log.Debug().Uint16("uid", c.UID).Err(err).Msg("[WSHub] write failed")
				return
			}
		}
	}
}

// Hub maps connection identifiers to their send queues.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint16]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint16]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.UID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(uid uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[uid]; ok {
		close(c.Send)
		delete(h.clients, uid)
	}
}

// Send queues a packet for one client. It never blocks.
func (h *Hub) Send(uid uint16, packet []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[uid]
	if !ok {
		return ErrNotConnected
	}
	select {
	case c.Send <- packet:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close drops the underlying connection. The read loop that owns the
// connection notices and performs the actual cleanup.
func (h *Hub) Close(uid uint16, reason string) {
	h.mu.RLock()
	c, ok := h.clients[uid]
	h.mu.RUnlock()
	if !ok || c.Conn == nil {
		return
	}
	log.Info().Uint16("uid", uid).Str("reason", reason).Msg("[WSHub] closing connection")
	go c.Conn.Close(websocket.StatusPolicyViolation, reason)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
