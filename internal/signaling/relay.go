// Package signaling forwards WebRTC negotiation payloads between two users.
// Payloads are opaque; the relay only stamps who they came from.
package signaling

import (
	"encoding/json"
	"log/slog"

	"github.com/Tyrowin/gochat-relay/internal/events"
	"github.com/Tyrowin/gochat-relay/internal/registry"
)

type Relay struct {
	log *slog.Logger
	pub registry.Publisher
}

func NewRelay(log *slog.Logger, pub registry.Publisher) *Relay {
	return &Relay{log: log, pub: pub}
}

// RelayOffer sends {caller, offer} to every connection of recipientID.
func (r *Relay) RelayOffer(recipientID string, offer json.RawMessage, callerID string) int {
	return r.relay(events.CallOfferEvent, recipientID, events.IncomingCall{Caller: callerID, Offer: offer})
}

// RelayAnswer sends {answer} back to every connection of callerID.
func (r *Relay) RelayAnswer(callerID string, answer json.RawMessage) int {
	return r.relay(events.CallAnswerEvent, callerID, events.CallAnswered{Answer: answer})
}

// RelayCandidate sends {sender, candidate} to every connection of recipientID.
func (r *Relay) RelayCandidate(recipientID string, candidate json.RawMessage, senderID string) int {
	return r.relay(events.ICECandidateEvent, recipientID, events.RemoteCandidate{Sender: senderID, Candidate: candidate})
}

func (r *Relay) relay(name events.Name, target string, payload any) int {
	frame, err := events.Encode(name, payload)
	if err != nil {
		r.log.Error("Failed to encode signaling frame", "event", name, "target", target, "error", err)
		return 0
	}

	n := r.pub.Publish(target, frame)
	if n == 0 {
		r.log.Debug("Signaling target unreachable", "event", name, "target", target)
	}
	return n
}
