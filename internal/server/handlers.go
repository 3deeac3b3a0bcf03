package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/store"
	"github.com/gorilla/websocket"
)

// Authenticator resolves the user behind a handshake request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// PresenceReader answers presence lookups for the HTTP API.
type PresenceReader interface {
	Lookup(ctx context.Context, userID string) (store.Presence, error)
}

// Server bundles the HTTP handlers and their collaborators.
type Server struct {
	cfg      *Config
	log      *slog.Logger
	hub      *Hub
	registry registry.Registry
	auth     Authenticator
	presence PresenceReader
	upgrader websocket.Upgrader
}

func NewServer(cfg *Config, log *slog.Logger, hub *Hub, reg registry.Registry, authn Authenticator, presence PresenceReader) *Server {
	origins := newOriginPolicy(log, cfg.Origins())
	return &Server{
		cfg:      cfg,
		log:      log,
		hub:      hub,
		registry: reg,
		auth:     authn,
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
	}
}

// WebSocketHandler authenticates the handshake, upgrades the connection and
// registers the client with the hub. Requests without an identity are
// rejected with 401 before the upgrade.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	userID, err := s.auth.Authenticate(r)
	if err != nil {
		s.log.Warn("Rejected unauthenticated connection", "addr", r.RemoteAddr, "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, s.hub, userID, r.RemoteAddr, s.cfg)
	if !s.hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Relay server is running!")
}

// StatsHandler reports the online users and open connections of this node.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users := s.registry.Users()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		OnlineUsers: len(users),
		Connections: s.registry.Count(),
		Users:       users,
	})
}

// PresenceHandler returns the presence record of ?userId=.
func (s *Server) PresenceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	p, err := s.presence.Lookup(r.Context(), userID)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.Error("Presence lookup failed", "user_id", userID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, PresenceResponse{UserID: p.UserID, IsOnline: p.IsOnline, LastSeen: p.LastSeen})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Error writing JSON response", "error", err)
	}
}
