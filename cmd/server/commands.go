package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/auth"
	"github.com/Tyrowin/gochat-relay/internal/server"
	"github.com/samber/lo"
)

// runToken prints a signed handshake token: server token -user alice -ttl 24h
func runToken(cfg *server.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.String("user", "", "user id to put in the token")
	ttl := fs.Duration("ttl", 24*time.Hour, "token validity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.AuthJWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET must be set to sign tokens")
	}
	userID := strings.TrimSpace(*user)
	if userID == "" {
		return errors.New("-user is required")
	}

	token, err := auth.GenerateToken(userID, []byte(cfg.AuthJWTSecret), *ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

// runChat creates or replaces a chat in the configured store:
// server chat -id chat1 -users alice,bob
func runChat(ctx context.Context, cfg *server.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	chatID := fs.String("id", "", "chat id")
	users := fs.String("users", "", "comma separated participant ids")
	if err := fs.Parse(args); err != nil {
		return err
	}

	participants := parseParticipants(*users)
	if strings.TrimSpace(*chatID) == "" || len(participants) == 0 {
		return errors.New("-id and -users are required")
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err := st.PutChat(ctx, strings.TrimSpace(*chatID), participants); err != nil {
		return fmt.Errorf("put chat: %w", err)
	}
	log.Info("Chat stored", "chat_id", *chatID, "participants", participants)
	return nil
}

func parseParticipants(raw string) []string {
	parts := lo.Map(strings.Split(raw, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Uniq(lo.Compact(parts))
}
