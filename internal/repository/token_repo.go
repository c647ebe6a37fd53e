package repository

import (
	"context"
	"time"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenRepository manages stored refresh tokens
type TokenRepository interface {
	Store(ctx context.Context, token *model.RefreshToken) error
	GetValid(ctx context.Context, token string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Store(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *tokenRepository) GetValid(ctx context.Context, token string) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := GetDB(ctx, r.db).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) Revoke(ctx context.Context, token string) error {
	return GetDB(ctx, r.db).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}

func (r *tokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}
