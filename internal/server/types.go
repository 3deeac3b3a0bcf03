package server

import (
	"strings"
	"time"
)

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	OnlineUsers int      `json:"onlineUsers"`
	Connections int      `json:"connections"`
	Users       []string `json:"users"`
}

// PresenceResponse is the body of GET /api/presence.
type PresenceResponse struct {
	UserID   string     `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
