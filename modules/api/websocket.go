package api

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	domain "github.com/example/roomiez/domain/user"
	"github.com/example/roomiez/modules/delivery"
)

const wsClaimsKey = "ws_claims"

// wsUpgradeMiddleware authenticates the handshake before the upgrade.
// A missing or invalid token refuses the connection with a distinct
// rejection reason; no presence entry is ever created for it.
func (m *APIModule) wsUpgradeMiddleware(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return unauthorized(c, "Authentication required")
	}

	claims, err := m.authAdapter.ValidateToken(c.UserContext(), token)
	if err != nil {
		return unauthorized(c, "Invalid token")
	}

	c.Locals(wsClaimsKey, claims)
	return c.Next()
}

// handleWebSocket services one authenticated chat connection. The
// identity bound at handshake is trusted for the connection lifetime;
// no per-message re-authentication happens.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	claims, ok := c.Locals(wsClaimsKey).(*domain.Claims)
	if !ok || claims == nil {
		_ = c.Close()
		return
	}

	client := &delivery.Client{
		ID:       uuid.New().String(),
		UserID:   claims.UserID,
		Username: claims.Username,
		Conn:     c,
	}

	m.hub.Register(client)
	defer func() {
		m.hub.Unregister(client)
		_ = c.Close()
		log.Printf("[api] WebSocket disconnected: user %s", claims.UserID)
	}()

	log.Printf("[api] WebSocket connected: user %s", claims.UserID)

	client.Send(delivery.Envelope{Type: delivery.EventConnected})

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] WebSocket error for user %s: %v", claims.UserID, err)
			}
			break
		}

		var msg wsInbound
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			client.Send(delivery.Envelope{
				Type:  delivery.EventMessageError,
				Error: "Invalid message format",
			})
			continue
		}

		switch msg.Type {
		case delivery.EventPrivateMessage:
			m.handlePrivateMessage(client, msg)
		default:
			client.Send(delivery.Envelope{
				Type:  delivery.EventMessageError,
				Error: "Unknown message type: " + msg.Type,
			})
		}
	}
}

// handlePrivateMessage relays one outbound message. Failures are
// isolated to this operation: the sender gets an error event and the
// read loop keeps running. The echo goes to the issuing connection
// handle, not whichever connection the presence registry currently
// resolves for the sender.
func (m *APIModule) handlePrivateMessage(client *delivery.Client, msg wsInbound) {
	if msg.Receiver == "" {
		client.Send(delivery.Envelope{
			Type:  delivery.EventMessageError,
			Error: "receiver is required",
		})
		return
	}

	view, err := m.chat.Send(context.Background(), client.UserID, msg.Receiver, msg.Content)
	if err != nil {
		log.Printf("[api] Send failed for user %s: %v", client.UserID, err)
		client.Send(delivery.Envelope{
			Type:  delivery.EventMessageError,
			Error: "Failed to send message",
		})
		return
	}
	if view == nil {
		// Blank send, silently dropped.
		return
	}

	client.Send(delivery.Envelope{
		Type:    delivery.EventMessageSent,
		Message: view,
	})
}
