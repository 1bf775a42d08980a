package task

import (
	"context"
	"errors"
	"time"
)

var ErrTaskNotFound = errors.New("task not found")

// Recurrence frequencies a reminder can carry.
const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
	RecurrenceYearly  = "yearly"
)

// Reminder markers. A marker, once present on a task, is never removed; it is
// the at-most-once guarantee for that trigger.
const (
	Marker24h   = "24h"
	Marker2h    = "2h"
	Marker15min = "15min"
)

// HeartbeatMarker names the marker for an explicit reminder at the given
// instant. The timestamp is pinned to UTC so rescheduled reminders get a
// fresh marker while re-sends of the same one are caught.
func HeartbeatMarker(reminderTime time.Time) string {
	return "heartbeat_" + reminderTime.UTC().Format(time.RFC3339)
}

// MarkerSet is the append-only collection of reminder markers on a task.
type MarkerSet []string

func (m MarkerSet) Has(marker string) bool {
	for _, existing := range m {
		if existing == marker {
			return true
		}
	}
	return false
}

// Add inserts the marker if absent and reports whether the set changed.
func (m *MarkerSet) Add(marker string) bool {
	if m.Has(marker) {
		return false
	}
	*m = append(*m, marker)
	return true
}

// Task is the reminder-bearing entity. Tasks may be private or shared with
// the owner's partner through couple_id.
type Task struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	CoupleID            string     `json:"couple_id,omitempty"`
	Title               string     `json:"title"`
	Category            string     `json:"category,omitempty"`
	Completed           bool       `json:"completed"`
	ReminderTime        *time.Time `json:"reminder_time,omitempty"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	RecurrenceFrequency string     `json:"recurrence_frequency"`
	RecurrenceInterval  int        `json:"recurrence_interval"`
	AutoRemindersSent   MarkerSet  `json:"auto_reminders_sent"`
	LastRemindedAt      *time.Time `json:"last_reminded_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Recurs reports whether the task's reminder repeats.
func (t *Task) Recurs() bool {
	return t.RecurrenceFrequency != "" && t.RecurrenceFrequency != RecurrenceNone
}

type ITaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	// ListRemindersBetween returns incomplete tasks whose reminder_time lies
	// in [from, to], both ends inclusive.
	ListRemindersBetween(ctx context.Context, from, to time.Time) ([]*Task, error)
	// ListDueWithin returns incomplete tasks with a due_date in
	// (now, now+horizon]. The reminder engine buckets them by
	// minutes-until-due.
	ListDueWithin(ctx context.Context, now time.Time, horizon time.Duration) ([]*Task, error)
	// ListOverdue returns incomplete tasks of the user whose due_date has
	// passed, most overdue first.
	ListOverdue(ctx context.Context, userID string, now time.Time) ([]*Task, error)
	// ListOpenByUser returns the user's incomplete tasks, soonest due first,
	// for briefing content.
	ListOpenByUser(ctx context.Context, userID string, limit int) ([]*Task, error)
	// SaveReminderState persists the reminder columns of the task (markers,
	// reminder_time, last_reminded_at) in a single update.
	SaveReminderState(ctx context.Context, task *Task) error
}
