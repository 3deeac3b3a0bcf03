// Package pgstore implements the store contract on PostgreSQL through the
// pgx database/sql driver. The schema is managed by goose migrations embedded
// in the binary.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/store"
	"github.com/Tyrowin/gochat-relay/internal/store/pgstore/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/lo"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn, checks the connection and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (s *Store) GetParticipants(ctx context.Context, chatID string) ([]string, error) {
	query :=
		`SELECT c.id, p.user_id FROM chats c
		 LEFT JOIN chat_participants p ON p.chat_id = c.id
		 WHERE c.id = $1
		 ORDER BY p.position
		 `

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	found := false
	participants := []string{}
	for rows.Next() {
		var id string
		var userID sql.NullString
		if err := rows.Scan(&id, &userID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		found = true
		if userID.Valid {
			participants = append(participants, userID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !found {
		return nil, store.ErrChatNotFound
	}
	return participants, nil
}

// PutChat replaces the participant set of a chat in one transaction.
func (s *Store) PutChat(ctx context.Context, chatID string, participants []string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO chats (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, chatID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE FROM chat_participants WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for i, userID := range lo.Uniq(participants) {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO chat_participants (chat_id, user_id, position) VALUES ($1, $2, $3)`,
			chatID, userID, i); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) SetUserOnline(ctx context.Context, userID string, online bool, at time.Time) error {
	query :=
		`INSERT INTO users (id, is_online, last_seen)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET is_online = EXCLUDED.is_online, last_seen = EXCLUDED.last_seen
		 `

	if _, err := s.db.ExecContext(ctx, query, userID, online, at.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) GetPresence(ctx context.Context, userID string) (store.Presence, error) {
	query := `SELECT is_online, last_seen FROM users WHERE id = $1`

	p := store.Presence{UserID: userID}
	var seen time.Time
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&p.IsOnline, &seen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Presence{}, store.ErrUserNotFound
		}
		return store.Presence{}, fmt.Errorf("db error: %w", err)
	}
	seen = seen.UTC()
	p.LastSeen = &seen
	return p, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
