package delivery

import (
	"context"
	"testing"

	chat "github.com/example/roomiez/domain/chat"
	user "github.com/example/roomiez/domain/user"
	"github.com/example/roomiez/events"
)

func messageSentEvent(id, senderID, receiverID, content string) events.MessageSentEvent {
	return events.MessageSentEvent{
		Message: chat.View{
			ID:       id,
			Sender:   user.Summary{ID: senderID, Username: "user-" + senderID},
			Receiver: user.Summary{ID: receiverID, Username: "user-" + receiverID},
			Content:  content,
		},
	}
}

func TestModule_HandleMessageSent(t *testing.T) {
	m := NewModule()
	receiver, receiverConn := newTestClient("conn-r", "u2")
	bystander, bystanderConn := newTestClient("conn-b", "u3")
	m.GetHub().Register(receiver)
	m.GetHub().Register(bystander)

	event := messageSentEvent("m1", "u1", "u2", "hello")

	if err := m.handleMessageSent(context.Background(), event, nil); err != nil {
		t.Fatalf("handleMessageSent() error = %v", err)
	}

	if receiverConn.frameCount() != 1 {
		t.Fatalf("expected exactly 1 frame to the receiver, got %d", receiverConn.frameCount())
	}
	env := receiverConn.lastEnvelope(t)
	if env.Type != EventPrivateMessage {
		t.Errorf("env.Type = %q, want %q", env.Type, EventPrivateMessage)
	}
	if env.Message == nil || env.Message.ID != "m1" {
		t.Errorf("expected the persisted message ID m1, got %+v", env.Message)
	}

	// Routed by receiver identity: nobody else hears it, including the sender.
	if bystanderConn.frameCount() != 0 {
		t.Errorf("expected no frames to other users, got %d", bystanderConn.frameCount())
	}
}

func TestModule_HandleMessageSent_OfflineReceiver(t *testing.T) {
	m := NewModule()

	event := messageSentEvent("m2", "u1", "nobody", "hello?")

	// Offline is not an error: the consumer must not fail the event so the
	// bus does not redeliver; the message surfaces via history instead.
	if err := m.handleMessageSent(context.Background(), event, nil); err != nil {
		t.Errorf("handleMessageSent() error = %v, want nil for offline receiver", err)
	}
}

func TestModule_HandleMessageSent_OnePerEvent(t *testing.T) {
	m := NewModule()
	receiver, receiverConn := newTestClient("conn-r", "u2")
	m.GetHub().Register(receiver)

	for _, id := range []string{"m1", "m2", "m3"} {
		event := messageSentEvent(id, "u1", "u2", "msg "+id)
		if err := m.handleMessageSent(context.Background(), event, nil); err != nil {
			t.Fatalf("handleMessageSent() error = %v", err)
		}
	}

	if receiverConn.frameCount() != 3 {
		t.Errorf("expected one frame per event, got %d for 3 events", receiverConn.frameCount())
	}
}
