package delivery

import (
	"context"
	"time"
)

// Priority orders outbound messages when the gateway defers them.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ChannelWhatsApp is the only channel currently wired; log rows record it so
// a second channel can be told apart later.
const ChannelWhatsApp = "whatsapp"

// Gateway is the outbound delivery collaborator. Send either delivers
// immediately or queues, at the implementation's discretion; ProcessQueue
// flushes whatever was deferred and returns how many messages moved.
type Gateway interface {
	Send(ctx context.Context, userID, messageType, content string, priority Priority) error
	ProcessQueue(ctx context.Context) (int, error)
	// Channel names the transport for log entries.
	Channel() string
}

// Outbound statuses.
const (
	OutboundQueued = "queued"
	OutboundSent   = "sent"
	OutboundFailed = "failed"
)

// OutboundMessage is one deferred send in the gateway's outbox. Low-priority
// messages land here instead of going out inline; ProcessQueue drains them.
type OutboundMessage struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Phone       string     `json:"phone"`
	MessageType string     `json:"message_type"`
	Content     string     `json:"content"`
	Priority    Priority   `json:"priority"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

type IOutboxRepository interface {
	Enqueue(ctx context.Context, msg *OutboundMessage) error
	// QueuedBatch returns queued messages, high priority first, oldest first
	// within a priority.
	QueuedBatch(ctx context.Context, limit int) ([]*OutboundMessage, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string) error
}
