package repository

import (
	"context"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/domains/user"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Persistence Model ---

type userModel struct {
	ID          string    `gorm:"primaryKey"`
	CoupleID    string    `gorm:"index:idx_users_couple"`
	Phone       string    `gorm:"uniqueIndex:idx_users_phone;not null"`
	DisplayName string
	CreatedAt   time.Time `gorm:"not null"`
}

func (userModel) TableName() string {
	return "users"
}

func fromUserModel(m userModel) *user.User {
	return &user.User{
		ID:          m.ID,
		CoupleID:    m.CoupleID,
		Phone:       m.Phone,
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt,
	}
}

// --- Repository Implementation ---

type UserGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userModel{})
}

func (r *UserGormRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	model := userModel{
		ID:          u.ID,
		CoupleID:    u.CoupleID,
		Phone:       utils.NormalizePhone(u.Phone),
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *UserGormRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return fromUserModel(m), nil
}

func (r *UserGormRepository) GetByPhone(ctx context.Context, phone string) (*user.User, error) {
	cleanPhone := utils.NormalizePhone(phone)
	if cleanPhone == "" {
		return nil, user.ErrUserNotFound
	}

	var m userModel
	// Exact digits first, then a suffix match so numbers stored with a
	// country code still resolve from a local-format input.
	err := r.db.WithContext(ctx).
		Where("phone = ? OR phone LIKE ?", cleanPhone, "%"+cleanPhone).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return fromUserModel(m), nil
}

func (r *UserGormRepository) ListByCouple(ctx context.Context, coupleID string) ([]*user.User, error) {
	var models []userModel
	if err := r.db.WithContext(ctx).
		Where("couple_id = ?", coupleID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, len(models))
	for i, m := range models {
		users[i] = fromUserModel(m)
	}
	return users, nil
}
