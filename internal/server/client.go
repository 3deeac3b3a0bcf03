package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one authenticated WebSocket connection. It implements
// registry.Conn so the registry can queue frames on it.
type Client struct {
	id     string
	userID string
	addr   string

	conn       *websocket.Conn
	hub        *Hub
	dispatcher *Dispatcher
	log        *slog.Logger

	mu     sync.Mutex
	closed bool
	send   chan []byte
	routes chan events.SendMessage

	maxMessageSize int64
	rateLimiter    *rate.Limiter
	burst          int
	refill         time.Duration
}

// NewClient creates a Client for an upgraded connection owned by userID.
func NewClient(conn *websocket.Conn, hub *Hub, userID, addr string, cfg *Config) *Client {
	maxSize := int64(cfg.MaxMessageSize)
	if conn != nil {
		conn.SetReadLimit(maxSize)
	}

	id := uuid.NewString()
	return &Client{
		id:             id,
		userID:         userID,
		addr:           addr,
		conn:           conn,
		hub:            hub,
		dispatcher:     hub.dispatcher,
		log:            hub.log.With("user_id", userID, "conn_id", id),
		send:           make(chan []byte, cfg.SendBufferSize),
		routes:         make(chan events.SendMessage, cfg.RouteQueueSize),
		maxMessageSize: maxSize,
		rateLimiter:    newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefillInterval),
		burst:          cfg.RateLimitBurst,
		refill:         cfg.RateLimitRefillInterval,
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Send queues payload for the write pump without blocking. A full queue means
// the peer is not keeping up: the frame is dropped and the connection closed,
// which sends it through the normal disconnect path.
func (c *Client) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		c.closed = true
		close(c.send)
		c.log.Warn("Send buffer full; closing slow connection", "buffer", cap(c.send))
		return false
	}
}

// closeSend stops the write pump. It is safe to call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Error("Error setting initial read deadline", "addr", c.addr, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Error("Error setting read deadline in pong handler", "addr", c.addr, "error", err)
		}
		return nil
	})
}

// handleReadError logs appropriate error messages based on the error type
// and returns true if the read loop should break
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warn("Frame exceeded maximum size", "addr", c.addr, "max_bytes", c.maxMessageSize)
		return true
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		c.log.Info("Client disconnected", "addr", c.addr, "reason", err)
		return true
	}

	if errors.Is(err, io.EOF) || isExpectedCloseError(err) {
		c.log.Info("Client connection closed", "addr", c.addr, "reason", err)
		return true
	}

	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig) {
		c.log.Warn("Unexpected WebSocket close", "addr", c.addr, "error", err)
		return true
	}

	c.log.Error("WebSocket read error", "addr", c.addr, "error", err)
	return true
}

// checkRateLimit reports whether the next frame may be processed.
func (c *Client) checkRateLimit() bool {
	if c.rateLimiter != nil && !c.rateLimiter.Allow() {
		c.log.Warn("Rate limit exceeded; discarding frame", "burst", c.burst, "interval", c.refill)
		return false
	}
	return true
}

// enqueueRoute hands a chat message to the route worker. Messages are routed
// in the order they were read.
func (c *Client) enqueueRoute(msg events.SendMessage) {
	select {
	case c.routes <- msg:
	default:
		c.log.Warn("Route queue full; dropping message", "chat_id", msg.ChatID)
	}
}

// routeWorker drains the route queue. It keeps running after the read pump
// stops so messages already read are still delivered.
func (c *Client) routeWorker(ctx context.Context) {
	for msg := range c.routes {
		c.dispatcher.route(ctx, c, msg)
	}
}

func (c *Client) readPump() {
	defer func() {
		close(c.routes)
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				c.log.Error("Error closing connection in readPump", "error", err)
			}
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if c.handleReadError(err) {
			break
		}

		if !c.checkRateLimit() {
			continue
		}

		c.dispatcher.Handle(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Error("Error closing connection in writePump", "error", err)
		}
	}
}

// handleMessage writes an outgoing frame and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Error("Error setting write deadline", "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if !c.writeTextMessage(message) {
		return false
	}
	return c.writeQueuedMessages()
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Error("Error writing close message", "error", err)
		}
	}
	return false
}

// writeTextMessage writes one frame. Every frame carries exactly one event.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Error("Error writing message", "error", err)
		}
		return false
	}
	return true
}

// writeQueuedMessages flushes frames that queued up while the last one was written.
func (c *Client) writeQueuedMessages() bool {
	n := len(c.send)
	for i := 0; i < n; i++ {
		message, ok := <-c.send
		if !ok {
			return c.writeCloseMessage()
		}
		if !c.writeTextMessage(message) {
			return false
		}
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.log.Error("Error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Error("Error writing ping message", "error", err)
		return false
	}
	return true
}
