package repository

import (
	"context"

	"milkeyway/internal/model"

	"gorm.io/gorm"
)

// AdminActionRepository is the append-only audit log of moderation decisions
type AdminActionRepository interface {
	Log(ctx context.Context, entry *model.AdminAction) error
	List(ctx context.Context, page, limit int) ([]model.AdminAction, int64, error)
}

type adminActionRepository struct {
	db *gorm.DB
}

func NewAdminActionRepository(db *gorm.DB) AdminActionRepository {
	return &adminActionRepository{db: db}
}

func (r *adminActionRepository) Log(ctx context.Context, entry *model.AdminAction) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *adminActionRepository) List(ctx context.Context, page, limit int) ([]model.AdminAction, int64, error) {
	var actions []model.AdminAction
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AdminAction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Admin").Order("created_at desc").Offset(offset).Limit(limit).Find(&actions).Error; err != nil {
		return nil, 0, err
	}

	return actions, total, nil
}
