package store

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Memory keeps chats and presence records in process. It backs tests and the
// "memory" backend.
type Memory struct {
	mu       sync.RWMutex
	chats    map[string][]string
	presence map[string]Presence
}

func NewMemory() *Memory {
	return &Memory{
		chats:    make(map[string][]string),
		presence: make(map[string]Presence),
	}
}

func (m *Memory) GetParticipants(ctx context.Context, chatID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	participants, ok := m.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	return append([]string(nil), participants...), nil
}

func (m *Memory) PutChat(ctx context.Context, chatID string, participants []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[chatID] = lo.Uniq(participants)
	return nil
}

func (m *Memory) SetUserOnline(ctx context.Context, userID string, online bool, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	seen := at.UTC()
	m.presence[userID] = Presence{UserID: userID, IsOnline: online, LastSeen: &seen}
	return nil
}

func (m *Memory) GetPresence(ctx context.Context, userID string) (Presence, error) {
	if err := ctx.Err(); err != nil {
		return Presence{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.presence[userID]
	if !ok {
		return Presence{}, ErrUserNotFound
	}
	return p, nil
}

func (m *Memory) Close() error { return nil }
