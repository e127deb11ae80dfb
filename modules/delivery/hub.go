package delivery

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	chat "github.com/example/roomiez/domain/chat"
)

// Wire event names, matching what chat clients listen for.
const (
	EventConnected      = "connected"
	EventPrivateMessage = "private message"
	EventMessageSent    = "message sent"
	EventMessageError   = "message error"
)

// Envelope is the frame pushed to WebSocket clients.
type Envelope struct {
	Type    string     `json:"type"`
	Message *chat.View `json:"message,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Conn is the write side of a WebSocket connection. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents one authenticated WebSocket connection.
type Client struct {
	ID       string // connection ID, unique per socket
	UserID   string
	Username string
	Conn     Conn

	mu sync.Mutex // serializes writes to Conn
}

// Send marshals the envelope and writes it to the client's connection.
// Write failures are logged and swallowed: delivery is best-effort and a
// dead connection is cleaned up by its own read loop.
func (c *Client) Send(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[delivery] Failed to marshal envelope: %v", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[delivery] Failed to send to user %s: %v", c.UserID, err)
	}
}

// Hub is the presence registry: it maps a user identity to that user's
// most recent connection. Entries are process-local and rebuilt from
// zero on restart.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // userID -> most recent client
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register inserts or overwrites the presence entry for the client's
// user. Last connection wins: an earlier connection for the same user
// becomes unreachable for delivery, though it is not closed.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.UserID] = client
	log.Printf("[delivery] User %s connected (%s)", client.UserID, client.ID)
}

// Unregister removes the presence entry, but only if it still points at
// this client; the disconnect of a superseded connection must not evict
// the newer one. Idempotent.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[client.UserID]; ok && current.ID == client.ID {
		delete(h.clients, client.UserID)
		log.Printf("[delivery] User %s disconnected (%s)", client.UserID, client.ID)
	}
}

// Lookup returns the user's current connection, or nil if the user is
// not connected. Nil means offline, not an error.
func (h *Hub) Lookup(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// DeliverToUser pushes an envelope to the user's current connection.
// Returns false when the user is offline; the message then stays at
// rest until the next history fetch.
func (h *Hub) DeliverToUser(userID string, env Envelope) bool {
	client := h.Lookup(userID)
	if client == nil {
		return false
	}
	client.Send(env)
	return true
}

// ClientCount returns the number of connected users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection and clears the registry. Called on
// shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
}
