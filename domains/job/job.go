package job

import (
	"context"
	"errors"
	"time"
)

var (
	ErrJobNotFound = errors.New("job not found")
	// ErrStaleTransition is returned when a transition races or repeats; the
	// stored status no longer matches the expected source state.
	ErrStaleTransition = errors.New("job status changed underneath transition")
)

// Type identifies the logical notification a job delivers.
type Type string

const (
	TypeMorningBriefing   Type = "morning_briefing"
	TypeEveningReview     Type = "evening_review"
	TypeWeeklySummary     Type = "weekly_summary"
	TypeTaskReminder      Type = "task_reminder"
	TypeOverdueNudge      Type = "overdue_nudge"
	TypePatternSuggestion Type = "pattern_suggestion"
)

// AllTypes lists every valid job type, in scheduling order.
func AllTypes() []Type {
	return []Type{
		TypeMorningBriefing,
		TypeEveningReview,
		TypeWeeklySummary,
		TypeTaskReminder,
		TypeOverdueNudge,
		TypePatternSuggestion,
	}
}

func (t Type) Valid() bool {
	switch t {
	case TypeMorningBriefing, TypeEveningReview, TypeWeeklySummary,
		TypeTaskReminder, TypeOverdueNudge, TypePatternSuggestion:
		return true
	}
	return false
}

// Generated reports whether the processor asks the content generator for this
// type. The remaining types carry their message in the job payload.
func (t Type) Generated() bool {
	switch t {
	case TypeMorningBriefing, TypeEveningReview, TypeWeeklySummary, TypePatternSuggestion:
		return true
	}
	return false
}

// Status is the job lifecycle state. Transitions only move forward:
// pending -> processing -> completed or failed. Failed jobs stay failed,
// there is no retry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// CanTransition reports whether moving from s to next respects the
// monotonic lifecycle.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

// Job is one scheduled notification. Rows are never deleted; completed and
// failed jobs remain as the audit trail.
type Job struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	JobType      Type           `json:"job_type"`
	ScheduledFor time.Time      `json:"scheduled_for"`
	Payload      map[string]any `json:"payload,omitempty"`
	Status       Status         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Message returns the pre-rendered body carried in the payload, if any.
func (j *Job) Message() string {
	if j.Payload == nil {
		return ""
	}
	if msg, ok := j.Payload["message"].(string); ok {
		return msg
	}
	return ""
}

type Filter struct {
	UserID string
	Status Status
	Type   Type
	Limit  int
}

type IJobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	// DueBatch returns at most limit pending jobs with scheduled_for <= now,
	// oldest first.
	DueBatch(ctx context.Context, now time.Time, limit int) ([]*Job, error)
	// Transition moves a job from one status to the next and fails if the
	// stored status no longer matches from.
	Transition(ctx context.Context, id string, from, to Status) error
	List(ctx context.Context, filter Filter) ([]*Job, error)
}
