package repository

import (
	"context"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ListByEmailOrPhone(ctx context.Context, email, phone string) ([]model.User, error)
	List(ctx context.Context, role string, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByEmailOrPhone returns every account claiming either unique identifier.
// The two identifiers can be held by different rows, so registration has to
// inspect all matches to detect verified duplicates and stale drafts.
func (r *userRepository) ListByEmailOrPhone(ctx context.Context, email, phone string) ([]model.User, error) {
	var users []model.User
	err := GetDB(ctx, r.db).
		Where("email = ? OR phone = ?", email, phone).
		Order("created_at").
		Find(&users).Error
	return users, err
}

func (r *userRepository) List(ctx context.Context, role string, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Order("created_at DESC").Offset(offset).Limit(limit)
	if role != "" {
		fetch = fetch.Where("role = ?", role)
	}
	if err := fetch.Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}

// HardDelete removes the row entirely, bypassing the soft delete. A
// soft-deleted draft would keep holding the unique email/phone indexes,
// so stale drafts displaced during re-registration must go for real.
func (r *userRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Unscoped().Where("id = ?", id).Delete(&model.User{}).Error
}
