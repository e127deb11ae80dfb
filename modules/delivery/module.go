package delivery

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/roomiez/events"
)

// Module consumes MessageSent events and pushes each message to the
// receiver's live connection, if one is registered. It owns the
// presence hub.
type Module struct {
	hub *Hub
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new delivery module.
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "delivery"
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	log.Println("[delivery] Module started - presence hub ready")
	return nil
}

// Stop closes all live connections.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[delivery] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers subscribes to MessageSent events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}
	log.Println("[delivery] Registered event consumers: MessageSent")
	return nil
}

// handleMessageSent relays a persisted message to the receiver's live
// connection. An offline receiver is not an error: the message is
// already durable and surfaces on the next history fetch.
func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	delivered := m.hub.DeliverToUser(event.Message.Receiver.ID, Envelope{
		Type:    EventPrivateMessage,
		Message: &event.Message,
	})
	if !delivered {
		log.Printf("[delivery] Receiver %s offline, message %s stays at rest",
			event.Message.Receiver.ID, event.Message.ID)
	}
	return nil
}

// GetHub returns the presence hub for the API module to use.
func (m *Module) GetHub() *Hub {
	return m.hub
}
