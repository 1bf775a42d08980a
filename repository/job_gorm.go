package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/job"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type jobModel struct {
	ID           string    `gorm:"primaryKey"`
	UserID       string    `gorm:"index:idx_jobs_user;not null"`
	JobType      string    `gorm:"index:idx_jobs_type;not null"`
	ScheduledFor time.Time `gorm:"index:idx_jobs_due,priority:2;not null"`
	Payload      string    `gorm:"type:text;default:'{}'"` // JSON
	Status       string    `gorm:"index:idx_jobs_due,priority:1;default:'pending'"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (jobModel) TableName() string {
	return "proactive_jobs"
}

func toJobModel(j *job.Job) (jobModel, error) {
	payload := "{}"
	if len(j.Payload) > 0 {
		raw, err := json.Marshal(j.Payload)
		if err != nil {
			return jobModel{}, err
		}
		payload = string(raw)
	}
	return jobModel{
		ID:           j.ID,
		UserID:       j.UserID,
		JobType:      string(j.JobType),
		ScheduledFor: j.ScheduledFor.UTC(),
		Payload:      payload,
		Status:       string(j.Status),
		CreatedAt:    j.CreatedAt,
	}, nil
}

func fromJobModel(m jobModel) (*job.Job, error) {
	var payload map[string]any
	if m.Payload != "" && m.Payload != "{}" {
		if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
			return nil, err
		}
	}
	return &job.Job{
		ID:           m.ID,
		UserID:       m.UserID,
		JobType:      job.Type(m.JobType),
		ScheduledFor: m.ScheduledFor,
		Payload:      payload,
		Status:       job.Status(m.Status),
		CreatedAt:    m.CreatedAt,
	}, nil
}

// --- Repository Implementation ---

type JobGormRepository struct {
	db *gorm.DB
}

func NewJobGormRepository(db *gorm.DB) *JobGormRepository {
	return &JobGormRepository{db: db}
}

func (r *JobGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&jobModel{})
}

func (r *JobGormRepository) Create(ctx context.Context, j *job.Job) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if j.Status == "" {
		j.Status = job.StatusPending
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}
	model, err := toJobModel(j)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *JobGormRepository) GetByID(ctx context.Context, id string) (*job.Job, error) {
	var m jobModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}
	return fromJobModel(m)
}

func (r *JobGormRepository) DueBatch(ctx context.Context, now time.Time, limit int) ([]*job.Job, error) {
	var models []jobModel
	query := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ?", string(job.StatusPending), now.UTC()).
		Order("scheduled_for ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	jobs := make([]*job.Job, len(models))
	for i, m := range models {
		j, err := fromJobModel(m)
		if err != nil {
			return nil, err
		}
		jobs[i] = j
	}
	return jobs, nil
}

// Transition guards the monotonic lifecycle at the storage layer: the update
// only applies while the row still holds the expected source status.
func (r *JobGormRepository) Transition(ctx context.Context, id string, from, to job.Status) error {
	if !from.CanTransition(to) {
		return job.ErrStaleTransition
	}
	result := r.db.WithContext(ctx).Model(&jobModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&jobModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return job.ErrJobNotFound
		}
		return job.ErrStaleTransition
	}
	return nil
}

func (r *JobGormRepository) List(ctx context.Context, filter job.Filter) ([]*job.Job, error) {
	var models []jobModel
	query := r.db.WithContext(ctx).Model(&jobModel{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		query = query.Where("job_type = ?", string(filter.Type))
	}

	query = query.Order("created_at DESC")
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if err := query.Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	jobs := make([]*job.Job, len(models))
	for i, m := range models {
		j, err := fromJobModel(m)
		if err != nil {
			return nil, err
		}
		jobs[i] = j
	}
	return jobs, nil
}
