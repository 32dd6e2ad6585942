// Package notify delivers live-update notifications produced by the
// real-time bridge to connected clients. Implementations exist for Redis
// pub/sub, NATS, and an in-process channel used by tests and local runs.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notification is the client-facing projection of a backbone event. Data
// carries only the fields the client UI needs, never the full envelope.
type Notification struct {
	Type      string         `json:"type"`
	SessionID *uuid.UUID     `json:"sessionId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Destination addresses a notification. Broadcast targets every connected
// client; otherwise the user and/or session scope the delivery.
type Destination struct {
	UserID    *uuid.UUID
	SessionID *uuid.UUID
	Broadcast bool
}

// Channel renders the destination as a slash-delimited channel name, the
// form used by the Redis notifier and by WebSocket gateways subscribing on
// the other end.
func (d Destination) Channel() string {
	if d.Broadcast {
		return "system"
	}
	var parts []string
	if d.UserID != nil {
		parts = append(parts, "user", d.UserID.String())
	}
	if d.SessionID != nil {
		parts = append(parts, "session", d.SessionID.String())
	}
	if len(parts) == 0 {
		return "system"
	}
	return strings.Join(parts, "/")
}

// Subject renders the destination in NATS dot notation.
func (d Destination) Subject() string {
	return strings.ReplaceAll(d.Channel(), "/", ".")
}

// Notifier pushes notifications towards connected clients.
type Notifier interface {
	Publish(ctx context.Context, dest Destination, n Notification) error
	Close() error
}
