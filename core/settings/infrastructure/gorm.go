package infrastructure

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type engineStateModel struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

func (engineStateModel) TableName() string {
	return "engine_state"
}

type EngineStateGormRepository struct {
	db *gorm.DB
}

func NewEngineStateGormRepository(db *gorm.DB) *EngineStateGormRepository {
	return &EngineStateGormRepository{db: db}
}

func (r *EngineStateGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&engineStateModel{})
}

func (r *EngineStateGormRepository) Get(ctx context.Context, key string) (string, error) {
	var m engineStateModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(m.Value), nil
}

func (r *EngineStateGormRepository) Set(ctx context.Context, key string, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": value}),
	}).Create(&engineStateModel{
		Key:   key,
		Value: value,
	}).Error
}

func (r *EngineStateGormRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Delete(&engineStateModel{}, "key = ?", key).Error
}
