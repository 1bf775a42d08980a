package proactive

import (
	"context"
	"fmt"
	"time"
)

// Action selects what the engine entrypoint does. Unknown values are
// rejected at parse time so dispatch can switch exhaustively.
type Action string

const (
	ActionTick             Action = "tick"
	ActionScheduleJob      Action = "schedule_job"
	ActionGenerateBriefing Action = "generate_briefing"
	ActionCheckReminders   Action = "check_reminders"
	ActionTestBriefing     Action = "test_briefing"
)

// ParseAction validates a wire-level action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionTick, ActionScheduleJob, ActionGenerateBriefing,
		ActionCheckReminders, ActionTestBriefing:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// EngineRequest is the action-tagged body of POST /api/engine. Only the
// fields of the selected action are read.
type EngineRequest struct {
	Action       string         `json:"action"`
	UserID       string         `json:"user_id,omitempty"`
	JobType      string         `json:"job_type,omitempty"`
	ScheduledFor string         `json:"scheduled_for,omitempty"` // RFC3339
	Payload      map[string]any `json:"payload,omitempty"`
	Deliver      bool           `json:"deliver,omitempty"`
	Phone        string         `json:"phone,omitempty"`
}

// TickReport aggregates one tick's per-stage counters. Stage errors carry
// the failing stage name so partial ticks stay observable.
type TickReport struct {
	JobsScheduled  int      `json:"jobs_scheduled"`
	JobsProcessed  int      `json:"jobs_processed"`
	JobsFailed     int      `json:"jobs_failed"`
	RemindersSent  int      `json:"reminders_sent"`
	NudgesSent     int      `json:"nudges_sent"`
	AgentsInvoked  int      `json:"agents_invoked"`
	QueueFlushed   int      `json:"queue_flushed"`
	StageErrors    []string `json:"stage_errors,omitempty"`
	DurationMillis int64    `json:"duration_ms"`
}

// ScheduleJobRequest creates one ad-hoc job.
type ScheduleJobRequest struct {
	UserID       string
	JobType      string
	ScheduledFor *time.Time // nil = now
	Payload      map[string]any
}

// BriefingResult is the output of generate_briefing.
type BriefingResult struct {
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
	Delivered bool   `json:"delivered"`
}

// TestBriefingResult is the output of test_briefing: who the phone resolved
// to and what was force-delivered.
type TestBriefingResult struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Preview     string `json:"preview"`
	Delivered   bool   `json:"delivered"`
}

type IEngineUsecase interface {
	Tick(ctx context.Context) (*TickReport, error)
	ScheduleJob(ctx context.Context, req ScheduleJobRequest) (string, error)
	GenerateBriefing(ctx context.Context, userID string, deliver bool) (*BriefingResult, error)
	CheckReminders(ctx context.Context) (int, error)
	TestBriefing(ctx context.Context, phone string) (*TestBriefingResult, error)
}
