package repository

import (
	"context"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationRepository manages one-time passcode rows
type VerificationRepository interface {
	Replace(ctx context.Context, v *model.UserVerification) error
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*model.UserVerification, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// Replace deletes any prior codes for the user and inserts the new one, so at
// most one verification row is live per user.
func (r *verificationRepository) Replace(ctx context.Context, v *model.UserVerification) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("user_id = ?", v.UserID).Delete(&model.UserVerification{}).Error; err != nil {
		return err
	}
	return db.Create(v).Error
}

// GetLatestByUser returns the most recently issued code; older orphans are ignored.
func (r *verificationRepository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*model.UserVerification, error) {
	var v model.UserVerification
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *verificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.UserVerification{}).Error
}

func (r *verificationRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.UserVerification{}).Error
}
