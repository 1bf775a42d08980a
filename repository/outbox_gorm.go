package repository

import (
	"context"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/delivery"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type outboundModel struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index:idx_outbound_user;not null"`
	Phone       string `gorm:"not null"`
	MessageType string
	Content     string    `gorm:"type:text"`
	Priority    string    `gorm:"default:'normal'"`
	Status      string    `gorm:"index:idx_outbound_status;default:'queued'"`
	Attempts    int       `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"not null"`
	SentAt      *time.Time
}

func (outboundModel) TableName() string {
	return "outbound_messages"
}

func fromOutboundModel(m outboundModel) *delivery.OutboundMessage {
	return &delivery.OutboundMessage{
		ID:          m.ID,
		UserID:      m.UserID,
		Phone:       m.Phone,
		MessageType: m.MessageType,
		Content:     m.Content,
		Priority:    delivery.Priority(m.Priority),
		Status:      m.Status,
		Attempts:    m.Attempts,
		CreatedAt:   m.CreatedAt,
		SentAt:      m.SentAt,
	}
}

// --- Repository Implementation ---

type OutboxGormRepository struct {
	db *gorm.DB
}

func NewOutboxGormRepository(db *gorm.DB) *OutboxGormRepository {
	return &OutboxGormRepository{db: db}
}

func (r *OutboxGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&outboundModel{})
}

func (r *OutboxGormRepository) Enqueue(ctx context.Context, msg *delivery.OutboundMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = delivery.OutboundQueued
	}
	if msg.Priority == "" {
		msg.Priority = delivery.PriorityNormal
	}
	model := outboundModel{
		ID:          msg.ID,
		UserID:      msg.UserID,
		Phone:       msg.Phone,
		MessageType: msg.MessageType,
		Content:     msg.Content,
		Priority:    string(msg.Priority),
		Status:      msg.Status,
		Attempts:    msg.Attempts,
		CreatedAt:   msg.CreatedAt,
		SentAt:      msg.SentAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *OutboxGormRepository) QueuedBatch(ctx context.Context, limit int) ([]*delivery.OutboundMessage, error) {
	var models []outboundModel
	query := r.db.WithContext(ctx).
		Where("status = ?", delivery.OutboundQueued).
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	msgs := make([]*delivery.OutboundMessage, len(models))
	for i, m := range models {
		msgs[i] = fromOutboundModel(m)
	}
	return msgs, nil
}

func (r *OutboxGormRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&outboundModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   delivery.OutboundSent,
			"sent_at":  at.UTC(),
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

func (r *OutboxGormRepository) MarkFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&outboundModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   delivery.OutboundFailed,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}
