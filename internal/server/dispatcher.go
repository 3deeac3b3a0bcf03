package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/Tyrowin/gochat-relay/internal/events"
)

// MessageRouter delivers a chat message to the other participants of a chat.
type MessageRouter interface {
	Route(ctx context.Context, chatID string, message json.RawMessage, senderID string) int
}

// SignalRelay forwards call negotiation payloads between two users.
type SignalRelay interface {
	RelayOffer(recipientID string, offer json.RawMessage, callerID string) int
	RelayAnswer(callerID string, answer json.RawMessage) int
	RelayCandidate(recipientID string, candidate json.RawMessage, senderID string) int
}

// Dispatcher decodes client frames and hands each variant to its handler.
// Chat messages go through the sender's route queue; signaling is relayed
// inline on the read loop.
type Dispatcher struct {
	log    *slog.Logger
	router MessageRouter
	relay  SignalRelay
}

func NewDispatcher(log *slog.Logger, router MessageRouter, relay SignalRelay) *Dispatcher {
	return &Dispatcher{log: log, router: router, relay: relay}
}

// Handle processes one raw frame read from c. Invalid frames are logged and
// dropped; the connection stays open.
func (d *Dispatcher) Handle(c *Client, raw []byte) {
	evt, err := events.Decode(raw)
	if err != nil {
		d.logDecodeError(c, err)
		return
	}

	switch e := evt.(type) {
	case events.SendMessage:
		c.enqueueRoute(e)
	case events.CallOffer:
		d.relay.RelayOffer(e.Recipient, e.Offer, c.userID)
	case events.CallAnswer:
		d.relay.RelayAnswer(e.Caller, e.Answer)
	case events.ICECandidate:
		d.relay.RelayCandidate(e.Recipient, e.Candidate, c.userID)
	}
}

func (d *Dispatcher) route(ctx context.Context, c *Client, msg events.SendMessage) {
	d.router.Route(ctx, msg.ChatID, msg.Message, c.userID)
}

func (d *Dispatcher) logDecodeError(c *Client, err error) {
	attrs := []any{"user_id", c.userID, "conn_id", c.id, "error", err}
	switch {
	case errors.Is(err, events.ErrUnknownEvent):
		d.log.Warn("Ignoring unknown event", attrs...)
	case errors.Is(err, events.ErrInvalidPayload), errors.Is(err, events.ErrMalformedFrame):
		d.log.Warn("Dropping invalid frame", attrs...)
	default:
		d.log.Error("Unexpected decode failure", attrs...)
	}
}
