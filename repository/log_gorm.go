package repository

import (
	"context"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/notification"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type logModel struct {
	ID             string    `gorm:"primaryKey"`
	UserID         string    `gorm:"index:idx_logs_dedup,priority:1;not null"`
	JobType        string    `gorm:"index:idx_logs_dedup,priority:2;not null"`
	Status         string    `gorm:"index:idx_logs_dedup,priority:3;not null"`
	MessagePreview string    `gorm:"size:160"`
	Channel        string
	CreatedAt      time.Time `gorm:"index:idx_logs_dedup,priority:4;index:idx_logs_created;not null"`
}

func (logModel) TableName() string {
	return "notification_logs"
}

func fromLogModel(m logModel) *notification.Log {
	return &notification.Log{
		ID:             m.ID,
		UserID:         m.UserID,
		JobType:        m.JobType,
		Status:         notification.LogStatus(m.Status),
		MessagePreview: m.MessagePreview,
		Channel:        m.Channel,
		CreatedAt:      m.CreatedAt,
	}
}

// --- Repository Implementation ---

type LogGormRepository struct {
	db *gorm.DB
}

func NewLogGormRepository(db *gorm.DB) *LogGormRepository {
	return &LogGormRepository{db: db}
}

func (r *LogGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&logModel{})
}

// Append inserts one log row. Entries are immutable once written; dedup
// correctness depends on nobody updating them afterwards.
func (r *LogGormRepository) Append(ctx context.Context, entry *notification.Log) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	model := logModel{
		ID:             entry.ID,
		UserID:         entry.UserID,
		JobType:        entry.JobType,
		Status:         string(entry.Status),
		MessagePreview: utils.TruncatePreview(entry.MessagePreview, notification.PreviewLimit),
		Channel:        entry.Channel,
		CreatedAt:      entry.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *LogGormRepository) HasSentSince(ctx context.Context, userID, jobType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&logModel{}).
		Where("user_id = ? AND job_type = ? AND status = ? AND created_at >= ?",
			userID, jobType, string(notification.StatusSent), since.UTC()).
		Count(&count).Error
	return count > 0, err
}

func (r *LogGormRepository) ListSentSince(ctx context.Context, userID, jobType string, since time.Time) ([]*notification.Log, error) {
	var models []logModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND job_type = ? AND status = ? AND created_at >= ?",
			userID, jobType, string(notification.StatusSent), since.UTC()).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	logs := make([]*notification.Log, len(models))
	for i, m := range models {
		logs[i] = fromLogModel(m)
	}
	return logs, nil
}

func (r *LogGormRepository) CountSentSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&logModel{}).
		Where("user_id = ? AND status = ? AND created_at >= ?",
			userID, string(notification.StatusSent), since.UTC()).
		Count(&count).Error
	return count, err
}

func (r *LogGormRepository) List(ctx context.Context, filter notification.Filter) ([]*notification.Log, error) {
	var models []logModel
	query := r.db.WithContext(ctx).Model(&logModel{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.JobType != "" {
		query = query.Where("job_type = ?", filter.JobType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if err := query.Order("created_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	logs := make([]*notification.Log, len(models))
	for i, m := range models {
		logs[i] = fromLogModel(m)
	}
	return logs, nil
}

func (r *LogGormRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		Delete(&logModel{})
	return result.RowsAffected, result.Error
}
