// Package registrytest provides a recording registry.Conn for tests.
package registrytest

import (
	"encoding/json"
	"sync"
)

// Conn records every payload it accepts. A closed Conn refuses payloads the way
// a disconnected client does.
type Conn struct {
	id     string
	userID string

	mu       sync.Mutex
	closed   bool
	received [][]byte
}

func NewConn(id, userID string) *Conn {
	return &Conn{id: id, userID: userID}
}

func (c *Conn) ID() string     { return c.id }
func (c *Conn) UserID() string { return c.userID }

func (c *Conn) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.received = append(c.received, payload)
	return true
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Received returns a copy of the accepted payloads in arrival order.
func (c *Conn) Received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.received))
	copy(out, c.received)
	return out
}

// Frame is the decoded shape of a delivered payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Frames decodes every accepted payload. Payloads that are not frames are skipped.
func (c *Conn) Frames() []Frame {
	var frames []Frame
	for _, raw := range c.Received() {
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}
		frames = append(frames, f)
	}
	return frames
}

// Events returns the event names of the accepted frames in order.
func (c *Conn) Events() []string {
	frames := c.Frames()
	names := make([]string, 0, len(frames))
	for _, f := range frames {
		names = append(names, f.Event)
	}
	return names
}
