// Package cluster mirrors local deliveries to the other relay nodes over NATS
// so a user connected to any node receives frames published on any node.
package cluster

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/nats-io/nats.go"
)

const (
	headerOrigin  = "Origin"
	headerChannel = "Channel"
	headerExcept  = "Except"
)

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// Bus is a registry.Publisher that delivers locally first and then forwards
// the frame to the cluster. Counts returned by Publish and Broadcast cover the
// local node only.
type Bus struct {
	log    *slog.Logger
	local  registry.Publisher
	conn   natsConn
	nodeID string

	publishSubject   string
	broadcastSubject string
}

// Connect dials NATS with unlimited reconnects.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}

func NewBus(log *slog.Logger, local registry.Publisher, conn natsConn, subjectPrefix, nodeID string) *Bus {
	return &Bus{
		log:              log,
		local:            local,
		conn:             conn,
		nodeID:           nodeID,
		publishSubject:   subjectPrefix + ".publish",
		broadcastSubject: subjectPrefix + ".broadcast",
	}
}

// Start subscribes to the frames forwarded by the other nodes.
func (b *Bus) Start() error {
	if _, err := b.conn.Subscribe(b.publishSubject, b.onPublish); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.publishSubject, err)
	}
	if _, err := b.conn.Subscribe(b.broadcastSubject, b.onBroadcast); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.broadcastSubject, err)
	}
	b.log.Info("Cluster bus started", "node_id", b.nodeID, "subject", b.publishSubject)
	return nil
}

func (b *Bus) Close() error {
	return b.conn.Drain()
}

func (b *Bus) Publish(channel string, payload []byte) int {
	n := b.local.Publish(channel, payload)

	msg := nats.NewMsg(b.publishSubject)
	msg.Header.Set(headerOrigin, b.nodeID)
	msg.Header.Set(headerChannel, channel)
	msg.Data = payload
	b.forward(msg)
	return n
}

func (b *Bus) Broadcast(payload []byte, exceptUserID string) int {
	n := b.local.Broadcast(payload, exceptUserID)

	msg := nats.NewMsg(b.broadcastSubject)
	msg.Header.Set(headerOrigin, b.nodeID)
	msg.Header.Set(headerExcept, exceptUserID)
	msg.Data = payload
	b.forward(msg)
	return n
}

func (b *Bus) forward(msg *nats.Msg) {
	if err := b.conn.PublishMsg(msg); err != nil {
		b.log.Error("Failed to forward frame to cluster", "subject", msg.Subject, "error", err)
	}
}

func (b *Bus) fromSelf(msg *nats.Msg) bool {
	return msg.Header.Get(headerOrigin) == b.nodeID
}

func (b *Bus) onPublish(msg *nats.Msg) {
	if b.fromSelf(msg) {
		return
	}
	channel := msg.Header.Get(headerChannel)
	if channel == "" {
		b.log.Warn("Cluster frame without channel dropped", "origin", msg.Header.Get(headerOrigin))
		return
	}
	b.local.Publish(channel, msg.Data)
}

func (b *Bus) onBroadcast(msg *nats.Msg) {
	if b.fromSelf(msg) {
		return
	}
	b.local.Broadcast(msg.Data, msg.Header.Get(headerExcept))
}
