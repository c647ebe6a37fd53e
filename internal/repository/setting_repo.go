package repository

import (
	"context"
	"errors"
	"strconv"

	"milkeyway/internal/model"

	"gorm.io/gorm"
)

// SettingRepository reads and writes admin-managed platform settings
type SettingRepository interface {
	Get(ctx context.Context, key string) (*model.PlatformSetting, error)
	GetFloat(ctx context.Context, key string, fallback float64) float64
	Set(ctx context.Context, setting *model.PlatformSetting) error
	List(ctx context.Context) ([]model.PlatformSetting, error)
}

type settingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) Get(ctx context.Context, key string) (*model.PlatformSetting, error) {
	var s model.PlatformSetting
	if err := GetDB(ctx, r.db).First(&s, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetFloat returns the setting parsed as float64, or fallback when the key is
// missing or malformed. Discovery uses this for the default search radius.
func (r *settingRepository) GetFloat(ctx context.Context, key string, fallback float64) float64 {
	s, err := r.Get(ctx, key)
	if err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (r *settingRepository) Set(ctx context.Context, setting *model.PlatformSetting) error {
	db := GetDB(ctx, r.db)
	var existing model.PlatformSetting
	err := db.First(&existing, "key = ?", setting.Key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(setting).Error
	}
	if err != nil {
		return err
	}
	existing.Value = setting.Value
	existing.UpdatedBy = setting.UpdatedBy
	return db.Save(&existing).Error
}

func (r *settingRepository) List(ctx context.Context) ([]model.PlatformSetting, error) {
	var settings []model.PlatformSetting
	err := GetDB(ctx, r.db).Order("key").Find(&settings).Error
	return settings, err
}
