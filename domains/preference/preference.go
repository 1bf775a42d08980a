package preference

import (
	"context"
	"errors"
	"time"
)

var ErrPreferenceNotFound = errors.New("preference not found")

// Preference is one user's notification settings row. The scheduling engines
// only ever read it; writes come from the settings surface.
type Preference struct {
	UserID                string    `json:"user_id"`
	ProactiveEnabled      bool      `json:"proactive_enabled"`
	Timezone              string    `json:"timezone"`
	QuietHoursStart       string    `json:"quiet_hours_start,omitempty"` // "HH:MM", empty = no quiet hours
	QuietHoursEnd         string    `json:"quiet_hours_end,omitempty"`
	MaxDailyMessages      int       `json:"max_daily_messages"`
	MorningBriefingOn     bool      `json:"morning_briefing_enabled"`
	MorningBriefingTime   string    `json:"morning_briefing_time"`
	EveningReviewOn       bool      `json:"evening_review_enabled"`
	EveningReviewTime     string    `json:"evening_review_time"`
	WeeklySummaryOn       bool      `json:"weekly_summary_enabled"`
	WeeklySummaryTime     string    `json:"weekly_summary_time"`
	WeeklySummaryDay      int       `json:"weekly_summary_day"` // 0=Sunday ... 6=Saturday
	TaskRemindersOn       bool      `json:"task_reminders_enabled"`
	OverdueNudgesOn       bool      `json:"overdue_nudges_enabled"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Default returns the settings a user has before saving any. Proactive
// features stay off until the user opts in; the cap keeps a misconfigured
// schedule from flooding anyone.
func Default(userID string) Preference {
	return Preference{
		UserID:              userID,
		ProactiveEnabled:    false,
		Timezone:            "UTC",
		MaxDailyMessages:    10,
		MorningBriefingOn:   true,
		MorningBriefingTime: "08:00",
		EveningReviewOn:     true,
		EveningReviewTime:   "20:00",
		WeeklySummaryOn:     true,
		WeeklySummaryTime:   "18:00",
		WeeklySummaryDay:    0,
		TaskRemindersOn:     true,
		OverdueNudgesOn:     true,
	}
}

type IPreferenceRepository interface {
	// Upsert inserts the row or overwrites the existing one for the same
	// user, keeping created_at from the first write.
	Upsert(ctx context.Context, pref *Preference) error
	GetByUser(ctx context.Context, userID string) (*Preference, error)
	// ListProactive returns every preference row with proactive_enabled set.
	// The recurring scheduler, nudge engine, and agent invoker iterate this.
	ListProactive(ctx context.Context) ([]*Preference, error)
}
