package delivery

import (
	"encoding/json"
	"sync"
	"testing"

	chat "github.com/example/roomiez/domain/chat"
)

// fakeConn records frames written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeConn) lastEnvelope(t *testing.T) Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		t.Fatal("no frames written")
	}
	var env Envelope
	if err := json.Unmarshal(f.frames[len(f.frames)-1], &env); err != nil {
		t.Fatalf("failed to unmarshal envelope: %v", err)
	}
	return env
}

func newTestClient(connID, userID string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return &Client{
		ID:       connID,
		UserID:   userID,
		Username: "user-" + userID,
		Conn:     conn,
	}, conn
}

func TestHub_RegisterAndLookup(t *testing.T) {
	hub := NewHub()
	client, _ := newTestClient("conn-1", "u1")

	if got := hub.Lookup("u1"); got != nil {
		t.Errorf("expected nil lookup before register, got %+v", got)
	}

	hub.Register(client)

	if got := hub.Lookup("u1"); got != client {
		t.Errorf("expected registered client, got %+v", got)
	}
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.ClientCount())
	}
}

func TestHub_LastConnectionWins(t *testing.T) {
	hub := NewHub()
	first, _ := newTestClient("conn-1", "u1")
	second, secondConn := newTestClient("conn-2", "u1")

	hub.Register(first)
	hub.Register(second)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 entry for the user, got %d", hub.ClientCount())
	}
	if got := hub.Lookup("u1"); got != second {
		t.Errorf("expected newest connection to win, got conn %q", got.ID)
	}

	// Delivery must land on the newest connection.
	if !hub.DeliverToUser("u1", Envelope{Type: EventPrivateMessage}) {
		t.Fatal("expected delivery to succeed")
	}
	if secondConn.frameCount() != 1 {
		t.Errorf("expected frame on newest connection, got %d", secondConn.frameCount())
	}
}

func TestHub_UnregisterOnlyEvictsOwnEntry(t *testing.T) {
	hub := NewHub()
	stale, _ := newTestClient("conn-1", "u1")
	fresh, _ := newTestClient("conn-2", "u1")

	hub.Register(stale)
	hub.Register(fresh)

	// The superseded connection's teardown must not evict the new one.
	hub.Unregister(stale)
	if got := hub.Lookup("u1"); got != fresh {
		t.Errorf("stale unregister evicted the fresh connection")
	}

	hub.Unregister(fresh)
	if got := hub.Lookup("u1"); got != nil {
		t.Errorf("expected empty registry, got %+v", got)
	}

	// Idempotent: repeating the unregister is harmless.
	hub.Unregister(fresh)
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestHub_DeliverToUser(t *testing.T) {
	hub := NewHub()
	client, conn := newTestClient("conn-1", "u1")
	hub.Register(client)

	view := chat.View{ID: "m1", Content: "hello"}

	t.Run("online receiver gets the envelope", func(t *testing.T) {
		if !hub.DeliverToUser("u1", Envelope{Type: EventPrivateMessage, Message: &view}) {
			t.Fatal("expected delivery to succeed")
		}
		env := conn.lastEnvelope(t)
		if env.Type != EventPrivateMessage {
			t.Errorf("expected type %q, got %q", EventPrivateMessage, env.Type)
		}
		if env.Message == nil || env.Message.ID != "m1" {
			t.Errorf("expected message m1, got %+v", env.Message)
		}
	})

	t.Run("offline receiver is not an error", func(t *testing.T) {
		if hub.DeliverToUser("nobody", Envelope{Type: EventPrivateMessage, Message: &view}) {
			t.Error("expected delivery to report offline")
		}
	})
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	a, aConn := newTestClient("conn-1", "u1")
	b, bConn := newTestClient("conn-2", "u2")
	hub.Register(a)
	hub.Register(b)

	hub.CloseAll()

	if hub.ClientCount() != 0 {
		t.Errorf("expected empty registry after CloseAll, got %d", hub.ClientCount())
	}
	if !aConn.closed || !bConn.closed {
		t.Error("expected all connections closed")
	}
}

func TestClient_ConcurrentSend(t *testing.T) {
	client, conn := newTestClient("conn-1", "u1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.Send(Envelope{Type: EventPrivateMessage})
		}()
	}
	wg.Wait()

	if conn.frameCount() != 20 {
		t.Errorf("expected 20 frames, got %d", conn.frameCount())
	}
}
