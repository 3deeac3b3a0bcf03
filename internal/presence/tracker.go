// Package presence persists online/offline edges and announces them to every
// connected user with a user-status frame.
package presence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/events"
	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/store"
)

// Transition is one presence edge observed by the lifecycle manager.
type Transition struct {
	UserID string
	Online bool
	At     time.Time
}

// OnlineChecker reports whether a user currently holds a local connection.
type OnlineChecker interface {
	Online(userID string) bool
}

// Tracker applies transitions in the order they were enqueued. Store failures
// are logged and never stop the user-status broadcast.
type Tracker struct {
	log     *slog.Logger
	store   store.PresenceStore
	pub     registry.Publisher
	online  OnlineChecker
	timeout time.Duration

	// sharedStore is set when other relay nodes write to the same store.
	sharedStore bool

	mu     sync.Mutex
	closed bool
	queue  chan Transition
}

type Option func(*Tracker)

// WithSharedStore makes Lookup trust the stored online flag as well as the
// local registry, for nodes that share their store with the rest of a cluster.
func WithSharedStore() Option {
	return func(t *Tracker) { t.sharedStore = true }
}

func NewTracker(log *slog.Logger, st store.PresenceStore, pub registry.Publisher, online OnlineChecker, timeout time.Duration, queueSize int, opts ...Option) *Tracker {
	if queueSize <= 0 {
		queueSize = 1
	}
	t := &Tracker{
		log:     log,
		store:   st,
		pub:     pub,
		online:  online,
		timeout: timeout,
		queue:   make(chan Transition, queueSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enqueue hands a transition to the worker without blocking the caller. It
// reports false once the tracker is closed or when the queue is full, in which
// case the transition is dropped and the stored record may lag until the
// user's next edge.
func (t *Tracker) Enqueue(tr Transition) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	select {
	case t.queue <- tr:
		return true
	default:
		t.log.Warn("Presence queue full; dropping transition", "user_id", tr.UserID, "online", tr.Online, "queue", cap(t.queue))
		return false
	}
}

// Close stops accepting transitions. Run returns after the queued ones are
// applied.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
}

// Run applies transitions until Close. Store writes outlive ctx cancellation
// so the offline edges produced during shutdown are still persisted, each one
// bounded by the store timeout.
func (t *Tracker) Run(ctx context.Context) error {
	writeCtx := context.WithoutCancel(ctx)
	for tr := range t.queue {
		if tr.Online {
			t.markOnline(writeCtx, tr.UserID, tr.At)
		} else {
			t.markOffline(writeCtx, tr.UserID, tr.At)
		}
	}
	t.log.Debug("Presence tracker stopped")
	return nil
}

// MarkOnline persists the online edge and tells every other user about it.
func (t *Tracker) MarkOnline(ctx context.Context, userID string) {
	t.markOnline(ctx, userID, time.Now())
}

// MarkOffline persists the offline edge with its last-seen time and tells
// every connected user.
func (t *Tracker) MarkOffline(ctx context.Context, userID string) {
	t.markOffline(ctx, userID, time.Now())
}

func (t *Tracker) markOnline(ctx context.Context, userID string, at time.Time) {
	t.persist(ctx, userID, true, at)
	t.announce(events.UserStatus{UserID: userID, IsOnline: true}, userID)
}

func (t *Tracker) markOffline(ctx context.Context, userID string, at time.Time) {
	t.persist(ctx, userID, false, at)
	seen := at.UTC()
	t.announce(events.UserStatus{UserID: userID, IsOnline: false, LastSeen: &seen}, "")
}

func (t *Tracker) persist(ctx context.Context, userID string, online bool, at time.Time) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.store.SetUserOnline(ctx, userID, online, at); err != nil {
		t.log.Error("Failed to persist presence", "user_id", userID, "online", online, "error", err)
		return
	}
	t.log.Debug("Presence persisted", "user_id", userID, "online", online)
}

func (t *Tracker) announce(status events.UserStatus, exceptUserID string) {
	frame, err := events.Encode(events.UserStatusEvent, status)
	if err != nil {
		t.log.Error("Failed to encode user-status", "user_id", status.UserID, "error", err)
		return
	}
	n := t.pub.Broadcast(frame, exceptUserID)
	t.log.Debug("User status broadcast", "user_id", status.UserID, "online", status.IsOnline, "delivered", n)
}

// Lookup combines the live online flag with the last persisted record. With
// a shared store a user connected to another node is reported online too.
func (t *Tracker) Lookup(ctx context.Context, userID string) (store.Presence, error) {
	online := t.online.Online(userID)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	p, err := t.store.GetPresence(ctx, userID)
	switch {
	case errors.Is(err, store.ErrUserNotFound) && online:
		return store.Presence{UserID: userID, IsOnline: true}, nil
	case err != nil:
		return store.Presence{}, err
	}
	p.UserID = userID
	p.IsOnline = online || (t.sharedStore && p.IsOnline)
	return p, nil
}
