package chat

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/go-monolith/mono"
	"gorm.io/gorm"

	domain "github.com/example/roomiez/domain/chat"
	"github.com/example/roomiez/events"
)

// Module owns the message relay: persistence, read-state bookkeeping,
// and emission of MessageSent events for live delivery.
type Module struct {
	dbFn     func() *gorm.DB
	friends  FriendshipChecker
	service  *Service
	eventBus mono.EventBus
}

// Port is the surface the API module drives: the live relay plus the
// read-state and history operations. *Module satisfies it.
type Port interface {
	Send(ctx context.Context, senderID, receiverID, content string) (*domain.View, error)
	MarkRead(ctx context.Context, readerID, otherPartyID string) error
	Conversation(ctx context.Context, userA, userB string) ([]domain.View, error)
	UnreadCount(ctx context.Context, readerID, otherPartyID string) (int64, error)
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
	_ Port                       = (*Module)(nil)
)

// NewModule creates a new chat module. The database handle is resolved
// lazily; the friendship checker comes from the roommate module.
func NewModule(db func() *gorm.DB, friends FriendshipChecker) *Module {
	return &Module{dbFn: db, friends: friends}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
	}
}

// Start initializes the chat module.
func (m *Module) Start(_ context.Context) error {
	db := m.dbFn()
	if db == nil {
		return fmt.Errorf("store database not available")
	}

	validateOnSend := os.Getenv("CHAT_VALIDATE_FRIENDSHIP_ON_SEND") == "true"
	m.service = NewService(NewMessageRepository(db), m.friends, validateOnSend)

	log.Printf("[chat] Module started (validate friendship on send: %v)", validateOnSend)
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.service != nil,
		Message: "operational",
	}
}

// Send persists a message and publishes a MessageSent event for the
// delivery module. The returned view is echoed to the issuing
// connection by the caller; a nil view means the send was dropped
// (empty content).
//
// Event publication is best-effort: a failed publish only costs the
// receiver the live push, and history retrieval remains the fallback.
func (m *Module) Send(ctx context.Context, senderID, receiverID, content string) (*domain.View, error) {
	view, err := m.service.Send(ctx, senderID, receiverID, content)
	if err != nil || view == nil {
		return view, err
	}

	event := events.MessageSentEvent{Message: *view}
	if err := events.MessageSentV1.Publish(m.eventBus, event, nil); err != nil {
		slog.Warn("Failed to publish MessageSent event",
			"messageID", view.ID, "error", err)
	}
	return view, nil
}

// MarkRead flips unread messages from otherPartyID to readerID to read.
func (m *Module) MarkRead(ctx context.Context, readerID, otherPartyID string) error {
	return m.service.MarkRead(ctx, readerID, otherPartyID)
}

// Conversation returns the ordered denormalized history between two users.
func (m *Module) Conversation(ctx context.Context, userA, userB string) ([]domain.View, error) {
	return m.service.Conversation(ctx, userA, userB)
}

// UnreadCount returns the number of unread messages from otherPartyID.
func (m *Module) UnreadCount(ctx context.Context, readerID, otherPartyID string) (int64, error) {
	return m.service.UnreadCount(ctx, readerID, otherPartyID)
}
