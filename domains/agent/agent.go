package agent

import (
	"context"
	"time"
)

// ScheduleClass determines how often a background agent may run.
type ScheduleClass string

const (
	ClassEveryTick ScheduleClass = "every_tick"
	ClassDaily     ScheduleClass = "daily"
	ClassWeekly    ScheduleClass = "weekly"
)

// Cooldown returns the minimum gap between runs for the class. Each value
// sits under the nominal period so clock skew cannot push an eligible run
// past its window: 12 minutes under the 15-minute tick, 20 hours under a
// day, 6 days under a week.
func (c ScheduleClass) Cooldown() time.Duration {
	switch c {
	case ClassEveryTick:
		return 12 * time.Minute
	case ClassWeekly:
		return 6 * 24 * time.Hour
	default:
		return 20 * time.Hour
	}
}

// CatalogEntry is one agent definition from the static catalog file.
type CatalogEntry struct {
	ID          string        `yaml:"id" json:"id"`
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Background  bool          `yaml:"background" json:"background"`
	Class       ScheduleClass `yaml:"schedule_class" json:"schedule_class"`
	// Time is the local "HH:MM" for daily and weekly classes.
	Time string `yaml:"time,omitempty" json:"time,omitempty"`
	// Weekday applies to weekly agents, 0=Sunday.
	Weekday int `yaml:"weekday,omitempty" json:"weekday,omitempty"`
	// RequiresConnection names an integration provider that must be active
	// for the user, empty if none.
	RequiresConnection string `yaml:"requires_connection,omitempty" json:"requires_connection,omitempty"`
}

// ICatalog resolves agent definitions. Implementations may hot-reload the
// backing file; Entries must always return a consistent snapshot.
type ICatalog interface {
	Entries() []CatalogEntry
	Get(agentID string) (CatalogEntry, bool)
}

// Activation is a user's opt-in to one agent.
type Activation struct {
	UserID    string    `json:"user_id"`
	AgentID   string    `json:"agent_id"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunStatusTriggered marks a run handed to the runner; the runner owns any
// later status.
const RunStatusTriggered = "triggered"

// Run is one appended invocation record. The invoker writes started_at at
// dispatch time so the very next tick already sees it for cooldowns.
type Run struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
}

type IAgentRepository interface {
	// ListEnabledActivations returns every enabled (user, agent) pair.
	ListEnabledActivations(ctx context.Context) ([]*Activation, error)
	SetActivation(ctx context.Context, activation *Activation) error
	// LatestRun returns the most recent run for the pair, or nil if none.
	LatestRun(ctx context.Context, userID, agentID string) (*Run, error)
	InsertRun(ctx context.Context, run *Run) error
}

// Runner receives eligible invocations. Calls must not block the tick; the
// engine never awaits a result.
type Runner interface {
	Invoke(agentID, userID string)
}
