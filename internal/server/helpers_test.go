package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/auth"
	"github.com/Tyrowin/gochat-relay/internal/events"
	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/router"
	"github.com/Tyrowin/gochat-relay/internal/server"
	"github.com/Tyrowin/gochat-relay/internal/signaling"
	"github.com/Tyrowin/gochat-relay/internal/store"
	"github.com/gorilla/websocket"
)

const testOrigin = "http://localhost:8080"

// testEnv is a fully wired relay served by httptest.
type testEnv struct {
	t           *testing.T
	cfg         *server.Config
	reg         *registry.Memory
	store       *store.Memory
	hub         *server.Hub
	httpServer  *httptest.Server
	wsURL       string
	trackerDone chan struct{}
	stopped     bool
}

func newTestEnv(t *testing.T, customize func(cfg *server.Config)) *testEnv {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = testOrigin
	if customize != nil {
		customize(cfg)
	}

	log := slog.New(slog.DiscardHandler)
	reg := registry.NewMemory()
	st := store.NewMemory()
	tracker := presence.NewTracker(log, st, reg, reg, cfg.StoreTimeout, 64)
	dispatcher := server.NewDispatcher(log,
		router.New(log, st, reg, cfg.StoreTimeout),
		signaling.NewRelay(log, reg),
	)
	hub := server.NewHub(log, reg, tracker, dispatcher)
	srv := server.NewServer(cfg, log, hub, reg, auth.NewAuthenticator(cfg.AuthJWTSecret), tracker)

	env := &testEnv{
		t:           t,
		cfg:         cfg,
		reg:         reg,
		store:       st,
		hub:         hub,
		trackerDone: make(chan struct{}),
	}

	go func() {
		defer close(env.trackerDone)
		_ = tracker.Run(context.Background())
	}()
	server.StartHub(log, hub)

	env.httpServer = httptest.NewServer(srv.SetupRoutes())
	u, err := url.Parse(env.httpServer.URL)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	u.Scheme = "ws"
	u.Path = "/ws"
	env.wsURL = u.String()

	t.Cleanup(env.stop)
	return env
}

// stop shuts the hub down and waits for pending presence writes.
func (e *testEnv) stop() {
	if e.stopped {
		return
	}
	e.stopped = true
	_ = e.hub.Shutdown(2 * time.Second)
	select {
	case <-e.trackerDone:
	case <-time.After(2 * time.Second):
		e.t.Error("Presence tracker did not stop")
	}
	e.httpServer.Close()
}

func originHeader(origin string) http.Header {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return header
}

// dialAs opens a connection for userID and waits until the hub registered it.
func (e *testEnv) dialAs(userID string) *websocket.Conn {
	e.t.Helper()
	before := e.reg.Count()

	conn, resp, err := websocket.DefaultDialer.Dial(e.wsURL+"?userId="+url.QueryEscape(userID), originHeader(testOrigin))
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		e.t.Fatalf("Failed to connect as %s: %v", userID, err)
	}
	e.t.Cleanup(func() { _ = conn.Close() })

	waitFor(e.t, func() bool { return e.reg.Count() > before }, "registration of "+userID)
	return conn
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func sendEvent(t *testing.T, conn *websocket.Conn, name events.Name, data any) {
	t.Helper()
	raw, err := events.Encode(name, data)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", name, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("Failed to send %s: %v", name, err)
	}
}

// readEvent returns the next frame named name, skipping any other event.
func readEvent(t *testing.T, conn *websocket.Conn, name events.Name) events.Frame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	if err := conn.SetReadDeadline(deadline); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed waiting for %s: %v", name, err)
		}
		var frame events.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			t.Fatalf("Received non-JSON frame %q: %v", raw, err)
		}
		if frame.Event == name {
			return frame
		}
	}
}

// expectNoEvent fails if a frame named name arrives within timeout. A read
// timeout is permanent in gorilla/websocket, so conn cannot be read again
// afterwards: call it last on a connection.
func expectNoEvent(t *testing.T, conn *websocket.Conn, name events.Name, timeout time.Duration) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			t.Fatalf("Unexpected error while waiting for absence of %s: %v", name, err)
		}
		var frame events.Frame
		if err := json.Unmarshal(raw, &frame); err == nil && frame.Event == name {
			t.Fatalf("Expected no %s, got %s", name, raw)
		}
	}
}

func decodeStatus(t *testing.T, frame events.Frame) events.UserStatus {
	t.Helper()
	var status events.UserStatus
	if err := json.Unmarshal(frame.Data, &status); err != nil {
		t.Fatalf("Invalid user-status payload %s: %v", frame.Data, err)
	}
	return status
}

// readStatusFor returns the next user-status frame about userID.
func readStatusFor(t *testing.T, conn *websocket.Conn, userID string) events.UserStatus {
	t.Helper()
	for {
		status := decodeStatus(t, readEvent(t, conn, events.UserStatusEvent))
		if status.UserID == userID {
			return status
		}
	}
}

func closeGracefully(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil && !strings.Contains(err.Error(), "close sent") {
		t.Fatalf("Failed to send close frame: %v", err)
	}
	_ = conn.Close()
}
