package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tyrowin/gochat-relay/internal/server"
	"github.com/Tyrowin/gochat-relay/internal/store"
	"github.com/Tyrowin/gochat-relay/internal/store/badgerstore"
	"github.com/Tyrowin/gochat-relay/internal/store/mongostore"
	"github.com/Tyrowin/gochat-relay/internal/store/pgstore"
)

// openStore connects the backend selected by STORE_BACKEND.
func openStore(ctx context.Context, cfg *server.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case "badger":
		st, err := badgerstore.Open(ctx, cfg.BadgerPath, log)
		if err != nil {
			return nil, fmt.Errorf("badger store: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := pgstore.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		return st, nil
	case "mongo":
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("mongo store: %w", err)
		}
		return st, nil
	case "memory":
		log.Warn("Using in-memory store; chats and presence are lost on restart")
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
