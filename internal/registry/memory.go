package registry

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

type connSet map[string]Conn

// Memory is the in-process Registry. All mutations and lookups go through a
// single RWMutex; deliveries take a snapshot under the read lock and send
// outside of it so a slow Send never holds the registry.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]connSet             // user id -> conn id -> conn
	channels map[string]connSet             // channel -> conn id -> conn
	joined   map[string]map[string]struct{} // conn id -> channels
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]connSet),
		channels: make(map[string]connSet),
		joined:   make(map[string]map[string]struct{}),
	}
}

func (m *Memory) Register(userID string, conn Conn) bool {
	if conn == nil || userID == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.users[userID]
	if !ok {
		conns = make(connSet)
		m.users[userID] = conns
	}
	if _, exists := conns[conn.ID()]; exists {
		return false
	}
	conns[conn.ID()] = conn
	m.join(conn, userID)

	return len(conns) == 1
}

func (m *Memory) Unregister(userID string, conn Conn) bool {
	if conn == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	conns, ok := m.users[userID]
	if !ok {
		return false
	}
	if _, exists := conns[conn.ID()]; !exists {
		return false
	}

	delete(conns, conn.ID())
	for channel := range m.joined[conn.ID()] {
		m.leave(conn, channel)
	}
	delete(m.joined, conn.ID())

	if len(conns) == 0 {
		delete(m.users, userID)
		return true
	}
	return false
}

func (m *Memory) Lookup(userID string) []Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return snapshot(m.users[userID])
}

// Join subscribes a registered connection to an additional channel.
// Connections that are not registered are ignored, and so is a channel named
// after an online user, which would be that user's private channel.
func (m *Memory) Join(conn Conn, channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.joined[conn.ID()]; !ok {
		return
	}
	if _, private := m.users[channel]; private {
		return
	}
	m.join(conn, channel)
}

func (m *Memory) Leave(conn Conn, channel string) {
	if channel == conn.UserID() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leave(conn, channel)
}

func (m *Memory) join(conn Conn, channel string) {
	members, ok := m.channels[channel]
	if !ok {
		members = make(connSet)
		m.channels[channel] = members
	}
	members[conn.ID()] = conn

	channels, ok := m.joined[conn.ID()]
	if !ok {
		channels = make(map[string]struct{})
		m.joined[conn.ID()] = channels
	}
	channels[channel] = struct{}{}
}

func (m *Memory) leave(conn Conn, channel string) {
	if members, ok := m.channels[channel]; ok {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(m.channels, channel)
		}
	}
	if channels, ok := m.joined[conn.ID()]; ok {
		delete(channels, channel)
	}
}

// Publish queues payload on every connection joined to channel and returns how
// many accepted it.
func (m *Memory) Publish(channel string, payload []byte) int {
	m.mu.RLock()
	targets := snapshot(m.channels[channel])
	m.mu.RUnlock()

	return deliver(targets, payload)
}

// Broadcast queues payload on every registered connection whose user is not
// exceptUserID. An empty exceptUserID reaches everyone.
func (m *Memory) Broadcast(payload []byte, exceptUserID string) int {
	m.mu.RLock()
	var targets []Conn
	for userID, conns := range m.users {
		if exceptUserID != "" && userID == exceptUserID {
			continue
		}
		targets = append(targets, snapshot(conns)...)
	}
	m.mu.RUnlock()

	return deliver(targets, payload)
}

func (m *Memory) Online(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users[userID]) > 0
}

// Users returns the ids of all online users in lexical order.
func (m *Memory) Users() []string {
	m.mu.RLock()
	users := lo.Keys(m.users)
	m.mu.RUnlock()

	sort.Strings(users)
	return users
}

// Count returns the number of registered connections.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.joined)
}

func snapshot(conns connSet) []Conn {
	if len(conns) == 0 {
		return nil
	}
	return lo.Values(conns)
}

func deliver(targets []Conn, payload []byte) int {
	delivered := 0
	for _, conn := range targets {
		if conn.Send(payload) {
			delivered++
		}
	}
	return delivered
}
