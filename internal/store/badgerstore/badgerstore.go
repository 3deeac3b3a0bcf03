// Package badgerstore persists chats and presence records in an embedded
// BadgerDB. Values are JSON documents under "chat:<id>" and "user:<id>" keys.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/store"
	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const (
	chatPrefix = "chat:"
	userPrefix = "user:"
)

type chatRecord struct {
	Participants []string `json:"participants"`
}

type userRecord struct {
	IsOnline bool      `json:"isOnline"`
	LastSeen time.Time `json:"lastSeen"`
}

type Store struct {
	db *badger.DB
}

// New wraps an already opened database. The caller keeps ownership unless
// Close is called on the Store.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a database at path. Debug logging on the relay
// logger turns on Badger's own debug output.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	options := badger.DefaultOptions(path)
	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return New(db), nil
}

func (s *Store) GetParticipants(ctx context.Context, chatID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec chatRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(chatPrefix + chatID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat %s: %w", chatID, err)
	}
	return rec.Participants, nil
}

func (s *Store) PutChat(ctx context.Context, chatID string, participants []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(chatRecord{Participants: lo.Uniq(participants)})
	if err != nil {
		return fmt.Errorf("marshal chat %s: %w", chatID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(chatPrefix+chatID), data)
	})
}

func (s *Store) SetUserOnline(ctx context.Context, userID string, online bool, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(userRecord{IsOnline: online, LastSeen: at.UTC()})
	if err != nil {
		return fmt.Errorf("marshal presence %s: %w", userID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userPrefix+userID), data)
	})
	if err != nil {
		return fmt.Errorf("set presence %s: %w", userID, err)
	}
	return nil
}

func (s *Store) GetPresence(ctx context.Context, userID string) (store.Presence, error) {
	if err := ctx.Err(); err != nil {
		return store.Presence{}, err
	}

	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userPrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.Presence{}, store.ErrUserNotFound
	}
	if err != nil {
		return store.Presence{}, fmt.Errorf("get presence %s: %w", userID, err)
	}

	seen := rec.LastSeen
	return store.Presence{UserID: userID, IsOnline: rec.IsOnline, LastSeen: &seen}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
