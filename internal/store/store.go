//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

// Package store is the persistence contract of the relay: chat membership
// lookups for routing and presence records for connect/disconnect edges.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrUserNotFound = errors.New("user not found")
)

// Presence is the persisted online state of a user.
type Presence struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type ParticipantStore interface {
	// GetParticipants returns the user ids of a chat. Unknown chats yield
	// ErrChatNotFound.
	GetParticipants(ctx context.Context, chatID string) ([]string, error)
}

type PresenceStore interface {
	// SetUserOnline upserts the user's presence record.
	SetUserOnline(ctx context.Context, userID string, online bool, at time.Time) error
	GetPresence(ctx context.Context, userID string) (Presence, error)
}

type ChatWriter interface {
	// PutChat creates or replaces the participant set of a chat.
	PutChat(ctx context.Context, chatID string, participants []string) error
}

type Store interface {
	ParticipantStore
	PresenceStore
	ChatWriter
	Close() error
}
