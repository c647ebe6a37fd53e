package repository

import (
	"context"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsumerRepository is the data access layer for consumer profiles
type ConsumerRepository interface {
	CreateProfile(ctx context.Context, profile *model.ConsumerProfile) error
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.ConsumerProfile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*model.ConsumerProfile, error)
	UpdateProfile(ctx context.Context, profile *model.ConsumerProfile) error
}

type consumerRepository struct {
	db *gorm.DB
}

func NewConsumerRepository(db *gorm.DB) ConsumerRepository {
	return &consumerRepository{db: db}
}

func (r *consumerRepository) CreateProfile(ctx context.Context, profile *model.ConsumerProfile) error {
	return GetDB(ctx, r.db).Create(profile).Error
}

func (r *consumerRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.ConsumerProfile, error) {
	var profile model.ConsumerProfile
	if err := GetDB(ctx, r.db).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *consumerRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*model.ConsumerProfile, error) {
	var profile model.ConsumerProfile
	if err := GetDB(ctx, r.db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *consumerRepository) UpdateProfile(ctx context.Context, profile *model.ConsumerProfile) error {
	return GetDB(ctx, r.db).Save(profile).Error
}
