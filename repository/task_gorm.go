package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/task"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type taskModel struct {
	ID                  string     `gorm:"primaryKey"`
	UserID              string     `gorm:"index:idx_tasks_user;not null"`
	CoupleID            string     `gorm:"index:idx_tasks_couple"`
	Title               string     `gorm:"not null"`
	Category            string
	Completed           bool       `gorm:"index:idx_tasks_reminder,priority:1;index:idx_tasks_due,priority:1;default:false"`
	ReminderTime        *time.Time `gorm:"index:idx_tasks_reminder,priority:2"`
	DueDate             *time.Time `gorm:"index:idx_tasks_due,priority:2"`
	RecurrenceFrequency string     `gorm:"default:'none'"`
	RecurrenceInterval  int        `gorm:"default:1"`
	AutoRemindersSent   string     `gorm:"type:text;default:'[]'"` // JSON marker set
	LastRemindedAt      *time.Time
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (taskModel) TableName() string {
	return "tasks"
}

func toTaskModel(t *task.Task) (taskModel, error) {
	markers := "[]"
	if len(t.AutoRemindersSent) > 0 {
		raw, err := json.Marshal(t.AutoRemindersSent)
		if err != nil {
			return taskModel{}, err
		}
		markers = string(raw)
	}
	return taskModel{
		ID:                  t.ID,
		UserID:              t.UserID,
		CoupleID:            t.CoupleID,
		Title:               t.Title,
		Category:            t.Category,
		Completed:           t.Completed,
		ReminderTime:        t.ReminderTime,
		DueDate:             t.DueDate,
		RecurrenceFrequency: t.RecurrenceFrequency,
		RecurrenceInterval:  t.RecurrenceInterval,
		AutoRemindersSent:   markers,
		LastRemindedAt:      t.LastRemindedAt,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}, nil
}

func fromTaskModel(m taskModel) (*task.Task, error) {
	var markers task.MarkerSet
	if m.AutoRemindersSent != "" && m.AutoRemindersSent != "[]" {
		if err := json.Unmarshal([]byte(m.AutoRemindersSent), &markers); err != nil {
			return nil, err
		}
	}
	return &task.Task{
		ID:                  m.ID,
		UserID:              m.UserID,
		CoupleID:            m.CoupleID,
		Title:               m.Title,
		Category:            m.Category,
		Completed:           m.Completed,
		ReminderTime:        m.ReminderTime,
		DueDate:             m.DueDate,
		RecurrenceFrequency: m.RecurrenceFrequency,
		RecurrenceInterval:  m.RecurrenceInterval,
		AutoRemindersSent:   markers,
		LastRemindedAt:      m.LastRemindedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}, nil
}

func fromTaskModels(models []taskModel) ([]*task.Task, error) {
	tasks := make([]*task.Task, len(models))
	for i, m := range models {
		t, err := fromTaskModel(m)
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return tasks, nil
}

// --- Repository Implementation ---

type TaskGormRepository struct {
	db *gorm.DB
}

func NewTaskGormRepository(db *gorm.DB) *TaskGormRepository {
	return &TaskGormRepository{db: db}
}

func (r *TaskGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&taskModel{})
}

func (r *TaskGormRepository) Create(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.RecurrenceFrequency == "" {
		t.RecurrenceFrequency = task.RecurrenceNone
	}

	model, err := toTaskModel(t)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *TaskGormRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	var m taskModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return fromTaskModel(m)
}

func (r *TaskGormRepository) ListRemindersBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	var models []taskModel
	err := r.db.WithContext(ctx).
		Where("completed = ? AND reminder_time IS NOT NULL AND reminder_time >= ? AND reminder_time <= ?",
			false, from.UTC(), to.UTC()).
		Order("reminder_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromTaskModels(models)
}

func (r *TaskGormRepository) ListDueWithin(ctx context.Context, now time.Time, horizon time.Duration) ([]*task.Task, error) {
	var models []taskModel
	err := r.db.WithContext(ctx).
		Where("completed = ? AND due_date IS NOT NULL AND due_date > ? AND due_date <= ?",
			false, now.UTC(), now.UTC().Add(horizon)).
		Order("due_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromTaskModels(models)
}

func (r *TaskGormRepository) ListOverdue(ctx context.Context, userID string, now time.Time) ([]*task.Task, error) {
	var models []taskModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND due_date IS NOT NULL AND due_date < ?",
			userID, false, now.UTC()).
		Order("due_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return fromTaskModels(models)
}

func (r *TaskGormRepository) ListOpenByUser(ctx context.Context, userID string, limit int) ([]*task.Task, error) {
	var models []taskModel
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ?", userID, false).
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return fromTaskModels(models)
}

// SaveReminderState persists only the reminder bookkeeping columns in one
// update, so a send confirmation touches the task row exactly once.
func (r *TaskGormRepository) SaveReminderState(ctx context.Context, t *task.Task) error {
	markers := "[]"
	if len(t.AutoRemindersSent) > 0 {
		raw, err := json.Marshal(t.AutoRemindersSent)
		if err != nil {
			return err
		}
		markers = string(raw)
	}

	result := r.db.WithContext(ctx).Model(&taskModel{}).
		Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"auto_reminders_sent": markers,
			"reminder_time":       t.ReminderTime,
			"last_reminded_at":    t.LastRemindedAt,
			"updated_at":          time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}
