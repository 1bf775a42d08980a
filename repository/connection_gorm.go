package repository

import (
	"context"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/connection"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Persistence Model ---

type connectionModel struct {
	UserID       string `gorm:"primaryKey"`
	Provider     string `gorm:"primaryKey"`
	Status       string `gorm:"index:idx_connections_status;default:'active'"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (connectionModel) TableName() string {
	return "integration_connections"
}

// --- Repository Implementation ---

type ConnectionGormRepository struct {
	db *gorm.DB
}

func NewConnectionGormRepository(db *gorm.DB) *ConnectionGormRepository {
	return &ConnectionGormRepository{db: db}
}

func (r *ConnectionGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&connectionModel{})
}

func (r *ConnectionGormRepository) Upsert(ctx context.Context, conn *connection.Connection) error {
	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now

	model := connectionModel{
		UserID:       conn.UserID,
		Provider:     conn.Provider,
		Status:       conn.Status,
		LastSyncedAt: conn.LastSyncedAt,
		CreatedAt:    conn.CreatedAt,
		UpdatedAt:    conn.UpdatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "last_synced_at", "updated_at"}),
	}).Create(&model).Error
}

func (r *ConnectionGormRepository) HasActive(ctx context.Context, userID, provider string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&connectionModel{}).
		Where("user_id = ? AND provider = ? AND status = ?",
			userID, provider, connection.StatusActive).
		Count(&count).Error
	return count > 0, err
}

func (r *ConnectionGormRepository) ListByUser(ctx context.Context, userID string) ([]*connection.Connection, error) {
	var models []connectionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("provider ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	conns := make([]*connection.Connection, len(models))
	for i, m := range models {
		conns[i] = &connection.Connection{
			UserID:       m.UserID,
			Provider:     m.Provider,
			Status:       m.Status,
			LastSyncedAt: m.LastSyncedAt,
			CreatedAt:    m.CreatedAt,
			UpdatedAt:    m.UpdatedAt,
		}
	}
	return conns, nil
}
