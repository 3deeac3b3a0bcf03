// Package registry tracks which users currently hold an open connection and
// delivers payloads to them. It is the single source of truth for whether a
// user is reachable.
package registry

// Conn is a registered transport session. Send must never block: it queues the
// payload for the connection's writer and reports false when the connection is
// closed or cannot accept more data.
type Conn interface {
	ID() string
	UserID() string
	Send(payload []byte) bool
}

// Publisher delivers encoded frames to logical channels. Every user is joined
// to a private channel named by their user id, so point-to-point delivery is a
// Publish on that id.
type Publisher interface {
	Publish(channel string, payload []byte) int
	Broadcast(payload []byte, exceptUserID string) int
}

// Registry maps user ids to their active connections. A user may hold several
// connections at once; the user is online while at least one is registered.
type Registry interface {
	Publisher

	// Register adds conn for userID and joins it to the user's private channel.
	// It reports true only when this is the user's first connection.
	Register(userID string, conn Conn) (first bool)

	// Unregister removes conn. It reports true only when the user had no other
	// connection left. Removing an unknown connection is a no-op.
	Unregister(userID string, conn Conn) (last bool)

	Lookup(userID string) []Conn

	// Join subscribes conn to a logical channel beyond its private one.
	// Private channels are named by user id, so other channel names must not
	// collide with user ids (prefix them, e.g. "call:42").
	Join(conn Conn, channel string)
	// Leave unsubscribes conn from channel. The private channel is only left
	// through Unregister.
	Leave(conn Conn, channel string)
	Online(userID string) bool
	Users() []string
	Count() int
}
