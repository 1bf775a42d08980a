package notification

import (
	"context"
	"time"
)

// LogStatus records the outcome of one delivery attempt.
type LogStatus string

const (
	StatusSent    LogStatus = "sent"
	StatusFailed  LogStatus = "failed"
	StatusSkipped LogStatus = "skipped"
)

// PreviewLimit caps the stored message excerpt.
const PreviewLimit = 160

// Log is one append-only delivery record. The scheduler reads this table to
// decide whether a notification already went out in the current period, so
// rows are never updated in place.
type Log struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	JobType        string    `json:"job_type"`
	Status         LogStatus `json:"status"`
	MessagePreview string    `json:"message_preview"`
	Channel        string    `json:"channel"`
	CreatedAt      time.Time `json:"created_at"`
}

type Filter struct {
	UserID  string
	JobType string
	Status  LogStatus
	Limit   int
}

type ILogRepository interface {
	Append(ctx context.Context, entry *Log) error
	// HasSentSince reports whether a sent entry of the given type exists for
	// the user at or after since.
	HasSentSince(ctx context.Context, userID, jobType string, since time.Time) (bool, error)
	// ListSentSince returns sent entries of the given type for the user at or
	// after since, newest first. Weekly dedup inspects their timestamps.
	ListSentSince(ctx context.Context, userID, jobType string, since time.Time) ([]*Log, error)
	// CountSentSince counts every sent entry for the user at or after since,
	// across all types. Backs the daily message cap.
	CountSentSince(ctx context.Context, userID string, since time.Time) (int64, error)
	List(ctx context.Context, filter Filter) ([]*Log, error)
	// PruneOlderThan deletes entries created before cutoff and returns how
	// many went away. The cutoff must stay beyond every dedup lookback.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
