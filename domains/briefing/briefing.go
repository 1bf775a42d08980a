package briefing

import (
	"context"
	"time"
)

// TaskView is the read-only slice of a task handed to content generation.
type TaskView struct {
	Title    string
	Category string
	DueDate  *time.Time
	Overdue  bool
	Shared   bool
}

// GenerateRequest carries everything a generator needs for one message.
type GenerateRequest struct {
	UserID      string
	DisplayName string
	PartnerName string
	JobType     string
	Timezone    string
	Now         time.Time
	Tasks       []TaskView
}

// Generator produces the text of a briefing, review, summary, or pattern
// suggestion. Implementations must be safe for sequential reuse across users
// within a tick.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
