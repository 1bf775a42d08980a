package connection

import (
	"context"
	"time"
)

// Connection statuses. Only active connections satisfy an agent's
// requires_connection gate.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
	StatusError   = "error"
)

// Connection records a user's link to an external integration provider
// (calendar, health, email). The engine only reads connectivity; syncing is
// the integration's own concern.
type Connection struct {
	UserID       string     `json:"user_id"`
	Provider     string     `json:"provider"`
	Status       string     `json:"status"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type IConnectionRepository interface {
	Upsert(ctx context.Context, conn *Connection) error
	// HasActive reports whether the user has an active connection for the
	// provider.
	HasActive(ctx context.Context, userID, provider string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*Connection, error)
}
