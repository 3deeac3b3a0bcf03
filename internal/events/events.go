// Package events defines the JSON frames exchanged over a relay connection.
//
// Every frame is an envelope {"event": name, "data": payload}. Client frames
// decode into one of four independent variants (SendMessage, CallOffer,
// CallAnswer, ICECandidate); server frames are built with Encode.
package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Name string

const (
	SendMessageEvent  Name = "send-message"
	NewMessageEvent   Name = "new-message"
	CallOfferEvent    Name = "call-offer"
	CallAnswerEvent   Name = "call-answer"
	ICECandidateEvent Name = "ice-candidate"
	UserStatusEvent   Name = "user-status"
)

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Frame is the envelope shared by both directions.
type Frame struct {
	Event Name            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is implemented by every client-originated variant.
type Inbound interface {
	Name() Name
}

type SendMessage struct {
	ChatID  string          `json:"chatId" validate:"required"`
	Message json.RawMessage `json:"message" validate:"payload"`
}

type CallOffer struct {
	Recipient string          `json:"recipient" validate:"required"`
	Offer     json.RawMessage `json:"offer" validate:"payload"`
}

type CallAnswer struct {
	Caller string          `json:"caller" validate:"required"`
	Answer json.RawMessage `json:"answer" validate:"payload"`
}

type ICECandidate struct {
	Recipient string          `json:"recipient" validate:"required"`
	Candidate json.RawMessage `json:"candidate" validate:"payload"`
}

func (SendMessage) Name() Name  { return SendMessageEvent }
func (CallOffer) Name() Name    { return CallOfferEvent }
func (CallAnswer) Name() Name   { return CallAnswerEvent }
func (ICECandidate) Name() Name { return ICECandidateEvent }

// Server-originated payloads.

type IncomingCall struct {
	Caller string          `json:"caller"`
	Offer  json.RawMessage `json:"offer"`
}

type CallAnswered struct {
	Answer json.RawMessage `json:"answer"`
}

type RemoteCandidate struct {
	Sender    string          `json:"sender"`
	Candidate json.RawMessage `json:"candidate"`
}

type UserStatus struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// payload accepts any JSON value except absent, null, false, 0 and "",
	// which is what a falsy check on the client object would reject.
	_ = v.RegisterValidation("payload", func(fl validator.FieldLevel) bool {
		raw, ok := fl.Field().Interface().(json.RawMessage)
		if !ok {
			return false
		}
		return present(raw)
	})
	return v
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// Decode parses a client frame into its variant and validates required fields.
func Decode(raw []byte) (Inbound, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	var evt Inbound
	switch frame.Event {
	case SendMessageEvent:
		evt = &SendMessage{}
	case CallOfferEvent:
		evt = &CallOffer{}
	case CallAnswerEvent:
		evt = &CallAnswer{}
	case ICECandidateEvent:
		evt = &ICECandidate{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
	}

	if !present(frame.Data) {
		return nil, fmt.Errorf("%w: %s has no data", ErrInvalidPayload, frame.Event)
	}
	if err := json.Unmarshal(frame.Data, evt); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, frame.Event, err)
	}
	if err := validate.Struct(evt); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, frame.Event, err)
	}

	return deref(evt), nil
}

func deref(evt Inbound) Inbound {
	switch e := evt.(type) {
	case *SendMessage:
		return *e
	case *CallOffer:
		return *e
	case *CallAnswer:
		return *e
	case *ICECandidate:
		return *e
	}
	return evt
}

// Encode builds a server frame. data may be a json.RawMessage, which is
// embedded unchanged.
func Encode(name Name, data any) ([]byte, error) {
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
	}
	return json.Marshal(Frame{Event: name, Data: raw})
}
