package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/presence"
	"github.com/Tyrowin/gochat-relay/internal/registry"
)

// PresenceQueue receives the online/offline edges detected by the hub.
type PresenceQueue interface {
	Enqueue(tr presence.Transition) bool
	Close()
}

// Hub is the connection lifecycle manager. Registration and unregistration go
// through its single Run loop, so the presence edges reported by the registry
// reach the presence queue in the order they happened.
type Hub struct {
	log        *slog.Logger
	registry   registry.Registry
	presence   PresenceQueue
	dispatcher *Dispatcher

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub. Run must be started before clients are registered.
func NewHub(log *slog.Logger, reg registry.Registry, queue PresenceQueue, dispatcher *Dispatcher) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		log:        log,
		registry:   reg,
		presence:   queue,
		dispatcher: dispatcher,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands a new client to the Run loop. It reports false when the hub
// is shutting down and the client was not accepted.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister removes a client. Calling it for an unknown or already removed
// client, or after shutdown, is harmless.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run starts the hub's main event loop. It returns after Shutdown, once every
// client has been unregistered and the presence queue closed.
func (h *Hub) Run() {
	defer close(h.done)
	defer h.presence.Close()

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("Received nil client registration; skipping")
				continue
			}
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mutex.Lock()
	h.clients[client] = struct{}{}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	if h.registry.Register(client.userID, client) {
		h.presence.Enqueue(presence.Transition{UserID: client.userID, Online: true, At: time.Now()})
	}
	h.log.Info("Client registered", "user_id", client.userID, "conn_id", client.id, "addr", client.addr, "clients", clientCount)

	h.wg.Add(3)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
	go func() {
		defer h.wg.Done()
		client.routeWorker(h.ctx)
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.release(client)
	h.log.Info("Client unregistered", "user_id", client.userID, "conn_id", client.id, "clients", clientCount)
}

// release drops the client from the registry, stops its writer and reports
// the offline edge when it was the user's last connection.
func (h *Hub) release(client *Client) {
	client.closeSend()
	if h.registry.Unregister(client.userID, client) {
		h.presence.Enqueue(presence.Transition{UserID: client.userID, Online: false, At: time.Now()})
	}
}

// shutdownClients closes every connection and marks every user offline.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]struct{})
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.log.Error("Error closing client connection", "addr", client.addr, "error", err)
			}
		}
		h.release(client)
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown stops the hub and waits for every client goroutine, or until the
// timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
