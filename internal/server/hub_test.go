package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/registry"
)

// recordingQueue collects presence transitions in order.
type recordingQueue struct {
	mu          sync.Mutex
	transitions []presence.Transition
	closed      bool
}

func (q *recordingQueue) Enqueue(tr presence.Transition) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.transitions = append(q.transitions, tr)
	return true
}

func (q *recordingQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func (q *recordingQueue) snapshot() ([]presence.Transition, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]presence.Transition(nil), q.transitions...), q.closed
}

type nopRouter struct{}

func (nopRouter) Route(_ context.Context, _ string, _ json.RawMessage, _ string) int { return 0 }

type nopRelay struct{}

func (nopRelay) RelayOffer(string, json.RawMessage, string) int     { return 0 }
func (nopRelay) RelayAnswer(string, json.RawMessage) int            { return 0 }
func (nopRelay) RelayCandidate(string, json.RawMessage, string) int { return 0 }

func newTestHub(t *testing.T) (*Hub, *registry.Memory, *recordingQueue) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	reg := registry.NewMemory()
	queue := &recordingQueue{}
	hub := NewHub(log, reg, queue, NewDispatcher(log, nopRouter{}, nopRelay{}))
	return hub, reg, queue
}

func TestClientSend_FullBufferClosesClient(t *testing.T) {
	hub, _, _ := newTestHub(t)
	cfg := NewConfig()
	cfg.SendBufferSize = 1
	client := NewClient(nil, hub, "A", "test", cfg)

	if !client.Send([]byte("first")) {
		t.Fatal("Expected first frame to be queued")
	}
	if client.Send([]byte("second")) {
		t.Fatal("Expected second frame to be dropped")
	}
	if client.Send([]byte("third")) {
		t.Fatal("Expected closed client to refuse frames")
	}

	// The queued frame is still drained before the writer sees the close.
	if msg, ok := <-client.send; !ok || string(msg) != "first" {
		t.Fatalf("Expected queued frame, got %q (open=%v)", msg, ok)
	}
	if _, ok := <-client.send; ok {
		t.Fatal("Expected send queue to be closed")
	}

	// Closing again is harmless.
	client.closeSend()
}

func TestClientIdentity(t *testing.T) {
	hub, _, _ := newTestHub(t)
	a := NewClient(nil, hub, "A", "test", NewConfig())
	b := NewClient(nil, hub, "A", "test", NewConfig())

	if a.UserID() != "A" {
		t.Errorf("Expected user A, got %s", a.UserID())
	}
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("Expected distinct connection ids, got %q and %q", a.ID(), b.ID())
	}
}

func TestHubShutdownWithoutClients(t *testing.T) {
	hub, _, queue := newTestHub(t)
	go hub.Run()

	if err := hub.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown error: %v", err)
	}

	if _, closed := queue.snapshot(); !closed {
		t.Fatal("Expected presence queue to be closed after shutdown")
	}

	client := NewClient(nil, hub, "A", "test", NewConfig())
	if hub.Register(client) {
		t.Fatal("Expected registration to be refused after shutdown")
	}
	// Unregister after shutdown must not block.
	hub.Unregister(client)
}

func TestHubUnregisterUnknownClient(t *testing.T) {
	hub, reg, queue := newTestHub(t)
	go hub.Run()
	defer func() { _ = hub.Shutdown(time.Second) }()

	hub.Unregister(NewClient(nil, hub, "ghost", "test", NewConfig()))

	if reg.Count() != 0 {
		t.Fatalf("Expected empty registry, got %d", reg.Count())
	}
	if transitions, _ := queue.snapshot(); len(transitions) != 0 {
		t.Fatalf("Expected no transitions, got %v", transitions)
	}
}

func TestHubConcurrentShutdown(t *testing.T) {
	hub, _, _ := newTestHub(t)
	go hub.Run()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hub.Shutdown(time.Second); err != nil {
				t.Errorf("Shutdown error: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestCreateServer(t *testing.T) {
	srv := CreateServer(":9999", nil)

	if srv.Addr != ":9999" {
		t.Errorf("Expected addr :9999, got %s", srv.Addr)
	}
	if srv.ReadTimeout != 15*time.Second || srv.WriteTimeout != 15*time.Second {
		t.Errorf("Unexpected read/write timeouts: %s/%s", srv.ReadTimeout, srv.WriteTimeout)
	}
	if srv.IdleTimeout != 60*time.Second {
		t.Errorf("Expected idle timeout 60s, got %s", srv.IdleTimeout)
	}
}
