package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	chatdomain "github.com/example/roomiez/domain/chat"
	user "github.com/example/roomiez/domain/user"
	"github.com/example/roomiez/modules/delivery"
)

// stubChat implements chat.Port with canned Send results.
type stubChat struct {
	view  *chatdomain.View
	err   error
	sends int
}

func (s *stubChat) Send(_ context.Context, _, _, _ string) (*chatdomain.View, error) {
	s.sends++
	return s.view, s.err
}

func (s *stubChat) MarkRead(_ context.Context, _, _ string) error { return nil }

func (s *stubChat) Conversation(_ context.Context, _, _ string) ([]chatdomain.View, error) {
	return nil, nil
}

func (s *stubChat) UnreadCount(_ context.Context, _, _ string) (int64, error) { return 0, nil }

// recordingConn captures frames written to the issuing connection.
type recordingConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *recordingConn) WriteMessage(_ int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, data)
	return nil
}

func (r *recordingConn) Close() error { return nil }

func (r *recordingConn) frameCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recordingConn) lastEnvelope(t *testing.T) delivery.Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		t.Fatal("no frames written to the connection")
	}
	var env delivery.Envelope
	if err := json.Unmarshal(r.frames[len(r.frames)-1], &env); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}
	return env
}

func newRelayClient() (*delivery.Client, *recordingConn) {
	conn := &recordingConn{}
	return &delivery.Client{
		ID:       "conn-1",
		UserID:   "u1",
		Username: "alice",
		Conn:     conn,
	}, conn
}

func TestAPIModule_HandlePrivateMessage(t *testing.T) {
	t.Run("successful send echoes the persisted message once", func(t *testing.T) {
		view := &chatdomain.View{
			ID:       "m1",
			Sender:   user.Summary{ID: "u1", Username: "alice"},
			Receiver: user.Summary{ID: "u2", Username: "bob"},
			Content:  "hi bob",
		}
		m := &APIModule{chat: &stubChat{view: view}}
		client, conn := newRelayClient()

		m.handlePrivateMessage(client, wsInbound{
			Type:     delivery.EventPrivateMessage,
			Receiver: "u2",
			Content:  "hi bob",
		})

		if conn.frameCount() != 1 {
			t.Fatalf("expected exactly 1 echo frame, got %d", conn.frameCount())
		}
		env := conn.lastEnvelope(t)
		if env.Type != delivery.EventMessageSent {
			t.Errorf("env.Type = %q, want %q", env.Type, delivery.EventMessageSent)
		}
		if env.Message == nil || env.Message.ID != "m1" {
			t.Errorf("echo must carry the persisted message ID, got %+v", env.Message)
		}
	})

	t.Run("persistence failure sends error event to the sender only", func(t *testing.T) {
		m := &APIModule{chat: &stubChat{err: errors.New("insert failed")}}
		client, conn := newRelayClient()

		m.handlePrivateMessage(client, wsInbound{
			Type:     delivery.EventPrivateMessage,
			Receiver: "u2",
			Content:  "will not persist",
		})

		if conn.frameCount() != 1 {
			t.Fatalf("expected 1 error frame, got %d", conn.frameCount())
		}
		env := conn.lastEnvelope(t)
		if env.Type != delivery.EventMessageError {
			t.Errorf("env.Type = %q, want %q", env.Type, delivery.EventMessageError)
		}
		if env.Error == "" {
			t.Error("expected an error description in the envelope")
		}
		if env.Message != nil {
			t.Errorf("error envelope must not carry a message, got %+v", env.Message)
		}
	})

	t.Run("blank send dropped without any frame", func(t *testing.T) {
		m := &APIModule{chat: &stubChat{}}
		client, conn := newRelayClient()

		m.handlePrivateMessage(client, wsInbound{
			Type:     delivery.EventPrivateMessage,
			Receiver: "u2",
			Content:  "   ",
		})

		if conn.frameCount() != 0 {
			t.Errorf("expected silence for a dropped send, got %d frames", conn.frameCount())
		}
	})

	t.Run("missing receiver rejected before the relay", func(t *testing.T) {
		stub := &stubChat{}
		m := &APIModule{chat: stub}
		client, conn := newRelayClient()

		m.handlePrivateMessage(client, wsInbound{
			Type:    delivery.EventPrivateMessage,
			Content: "to whom?",
		})

		if stub.sends != 0 {
			t.Errorf("expected no relay attempt without a receiver, got %d", stub.sends)
		}
		env := conn.lastEnvelope(t)
		if env.Type != delivery.EventMessageError {
			t.Errorf("env.Type = %q, want %q", env.Type, delivery.EventMessageError)
		}
	})
}
