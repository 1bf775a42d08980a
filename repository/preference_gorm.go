package repository

import (
	"context"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Persistence Model ---

type preferenceModel struct {
	UserID              string    `gorm:"primaryKey"`
	ProactiveEnabled    bool      `gorm:"index:idx_prefs_proactive;default:false"`
	Timezone            string    `gorm:"default:'UTC'"`
	QuietHoursStart     *string   `gorm:"size:5"`
	QuietHoursEnd       *string   `gorm:"size:5"`
	MaxDailyMessages    int       `gorm:"default:10"`
	MorningBriefingOn   bool      `gorm:"column:morning_briefing_enabled;default:true"`
	MorningBriefingTime string    `gorm:"size:5;default:'08:00'"`
	EveningReviewOn     bool      `gorm:"column:evening_review_enabled;default:true"`
	EveningReviewTime   string    `gorm:"size:5;default:'20:00'"`
	WeeklySummaryOn     bool      `gorm:"column:weekly_summary_enabled;default:true"`
	WeeklySummaryTime   string    `gorm:"size:5;default:'18:00'"`
	WeeklySummaryDay    int       `gorm:"default:0"`
	TaskRemindersOn     bool      `gorm:"column:task_reminders_enabled;default:true"`
	OverdueNudgesOn     bool      `gorm:"column:overdue_nudges_enabled;default:true"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (preferenceModel) TableName() string {
	return "notification_preferences"
}

func toPreferenceModel(p *preference.Preference) preferenceModel {
	m := preferenceModel{
		UserID:              p.UserID,
		ProactiveEnabled:    p.ProactiveEnabled,
		Timezone:            p.Timezone,
		MaxDailyMessages:    p.MaxDailyMessages,
		MorningBriefingOn:   p.MorningBriefingOn,
		MorningBriefingTime: p.MorningBriefingTime,
		EveningReviewOn:     p.EveningReviewOn,
		EveningReviewTime:   p.EveningReviewTime,
		WeeklySummaryOn:     p.WeeklySummaryOn,
		WeeklySummaryTime:   p.WeeklySummaryTime,
		WeeklySummaryDay:    p.WeeklySummaryDay,
		TaskRemindersOn:     p.TaskRemindersOn,
		OverdueNudgesOn:     p.OverdueNudgesOn,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	if p.QuietHoursStart != "" {
		start := p.QuietHoursStart
		m.QuietHoursStart = &start
	}
	if p.QuietHoursEnd != "" {
		end := p.QuietHoursEnd
		m.QuietHoursEnd = &end
	}
	return m
}

func fromPreferenceModel(m preferenceModel) *preference.Preference {
	p := &preference.Preference{
		UserID:              m.UserID,
		ProactiveEnabled:    m.ProactiveEnabled,
		Timezone:            m.Timezone,
		MaxDailyMessages:    m.MaxDailyMessages,
		MorningBriefingOn:   m.MorningBriefingOn,
		MorningBriefingTime: m.MorningBriefingTime,
		EveningReviewOn:     m.EveningReviewOn,
		EveningReviewTime:   m.EveningReviewTime,
		WeeklySummaryOn:     m.WeeklySummaryOn,
		WeeklySummaryTime:   m.WeeklySummaryTime,
		WeeklySummaryDay:    m.WeeklySummaryDay,
		TaskRemindersOn:     m.TaskRemindersOn,
		OverdueNudgesOn:     m.OverdueNudgesOn,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if m.QuietHoursStart != nil {
		p.QuietHoursStart = *m.QuietHoursStart
	}
	if m.QuietHoursEnd != nil {
		p.QuietHoursEnd = *m.QuietHoursEnd
	}
	return p
}

// --- Repository Implementation ---

type PreferenceGormRepository struct {
	db *gorm.DB
}

func NewPreferenceGormRepository(db *gorm.DB) *PreferenceGormRepository {
	return &PreferenceGormRepository{db: db}
}

func (r *PreferenceGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&preferenceModel{})
}

// Upsert writes the whole preference row, keeping created_at from the first
// insert when the user already has one.
func (r *PreferenceGormRepository) Upsert(ctx context.Context, pref *preference.Preference) error {
	now := time.Now().UTC()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now

	model := toPreferenceModel(pref)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"proactive_enabled", "timezone", "quiet_hours_start", "quiet_hours_end",
			"max_daily_messages",
			"morning_briefing_enabled", "morning_briefing_time",
			"evening_review_enabled", "evening_review_time",
			"weekly_summary_enabled", "weekly_summary_time", "weekly_summary_day",
			"task_reminders_enabled", "overdue_nudges_enabled",
			"updated_at",
		}),
	}).Create(&model).Error
}

func (r *PreferenceGormRepository) GetByUser(ctx context.Context, userID string) (*preference.Preference, error) {
	var m preferenceModel
	if err := r.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, preference.ErrPreferenceNotFound
		}
		return nil, err
	}
	return fromPreferenceModel(m), nil
}

func (r *PreferenceGormRepository) ListProactive(ctx context.Context) ([]*preference.Preference, error) {
	var models []preferenceModel
	if err := r.db.WithContext(ctx).
		Where("proactive_enabled = ?", true).
		Order("user_id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	prefs := make([]*preference.Preference, len(models))
	for i, m := range models {
		prefs[i] = fromPreferenceModel(m)
	}
	return prefs, nil
}
