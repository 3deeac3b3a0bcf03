// Package router delivers chat messages to the other participants of a chat.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/events"
	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/store"
	"github.com/samber/lo"
)

type Router struct {
	log     *slog.Logger
	chats   store.ParticipantStore
	pub     registry.Publisher
	timeout time.Duration
}

func New(log *slog.Logger, chats store.ParticipantStore, pub registry.Publisher, timeout time.Duration) *Router {
	return &Router{log: log, chats: chats, pub: pub, timeout: timeout}
}

// Route sends message unchanged as a new-message frame to every participant
// of chatID except senderID and returns the number of connections that
// accepted it. Unknown chats and offline participants are not errors.
func (r *Router) Route(ctx context.Context, chatID string, message json.RawMessage, senderID string) int {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	participants, err := r.chats.GetParticipants(lookupCtx, chatID)
	cancel()

	switch {
	case errors.Is(err, store.ErrChatNotFound):
		r.log.Debug("Message for unknown chat dropped", "chat_id", chatID, "sender", senderID)
		return 0
	case err != nil:
		r.log.Error("Failed to resolve chat participants", "chat_id", chatID, "error", err)
		return 0
	}

	recipients := lo.Without(lo.Uniq(participants), senderID)
	if len(recipients) == 0 {
		return 0
	}

	frame, err := events.Encode(events.NewMessageEvent, message)
	if err != nil {
		r.log.Error("Failed to encode new-message", "chat_id", chatID, "error", err)
		return 0
	}

	delivered := 0
	for _, userID := range recipients {
		delivered += r.pub.Publish(userID, frame)
	}
	r.log.Debug("Message routed", "chat_id", chatID, "sender", senderID, "recipients", len(recipients), "delivered", delivered)
	return delivered
}
