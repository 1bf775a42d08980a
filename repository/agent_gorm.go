package repository

import (
	"context"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/agent"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Persistence Models ---

type agentActivationModel struct {
	UserID    string    `gorm:"primaryKey"`
	AgentID   string    `gorm:"primaryKey"`
	Enabled   bool      `gorm:"index:idx_activations_enabled;default:true"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (agentActivationModel) TableName() string {
	return "agent_activations"
}

type agentRunModel struct {
	ID        string    `gorm:"primaryKey"`
	AgentID   string    `gorm:"index:idx_runs_pair,priority:2;not null"`
	UserID    string    `gorm:"index:idx_runs_pair,priority:1;not null"`
	StartedAt time.Time `gorm:"index:idx_runs_pair,priority:3;not null"`
	Status    string
	Detail    string
}

func (agentRunModel) TableName() string {
	return "agent_runs"
}

// --- Repository Implementation ---

type AgentGormRepository struct {
	db *gorm.DB
}

func NewAgentGormRepository(db *gorm.DB) *AgentGormRepository {
	return &AgentGormRepository{db: db}
}

func (r *AgentGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&agentActivationModel{}, &agentRunModel{})
}

func (r *AgentGormRepository) ListEnabledActivations(ctx context.Context) ([]*agent.Activation, error) {
	var models []agentActivationModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("user_id ASC, agent_id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	activations := make([]*agent.Activation, len(models))
	for i, m := range models {
		activations[i] = &agent.Activation{
			UserID:    m.UserID,
			AgentID:   m.AgentID,
			Enabled:   m.Enabled,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		}
	}
	return activations, nil
}

func (r *AgentGormRepository) SetActivation(ctx context.Context, activation *agent.Activation) error {
	now := time.Now().UTC()
	if activation.CreatedAt.IsZero() {
		activation.CreatedAt = now
	}
	activation.UpdatedAt = now

	model := agentActivationModel{
		UserID:    activation.UserID,
		AgentID:   activation.AgentID,
		Enabled:   activation.Enabled,
		CreatedAt: activation.CreatedAt,
		UpdatedAt: activation.UpdatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "agent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&model).Error
}

func (r *AgentGormRepository) LatestRun(ctx context.Context, userID, agentID string) (*agent.Run, error) {
	var m agentRunModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND agent_id = ?", userID, agentID).
		Order("started_at DESC").
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &agent.Run{
		ID:        m.ID,
		AgentID:   m.AgentID,
		UserID:    m.UserID,
		StartedAt: m.StartedAt,
		Status:    m.Status,
		Detail:    m.Detail,
	}, nil
}

func (r *AgentGormRepository) InsertRun(ctx context.Context, run *agent.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	model := agentRunModel{
		ID:        run.ID,
		AgentID:   run.AgentID,
		UserID:    run.UserID,
		StartedAt: run.StartedAt,
		Status:    run.Status,
		Detail:    run.Detail,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}
