package repository

import (
	"context"
	"errors"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FarmerRepository is the data access layer for farmer profiles and their documents
type FarmerRepository interface {
	CreateProfile(ctx context.Context, profile *model.FarmerProfile) error
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.FarmerProfile, error)
	GetProfileByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*model.FarmerProfile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*model.FarmerProfile, error)
	UpdateProfile(ctx context.Context, profile *model.FarmerProfile) error
	ListByStatus(ctx context.Context, status string, page, limit int) ([]model.FarmerProfile, int64, error)
	ListApprovedWithCoords(ctx context.Context) ([]model.FarmerProfile, error)
	ListApprovedWithCoordsByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.FarmerProfile, error)

	UpsertDocs(ctx context.Context, docs *model.FarmerDocs) error
	GetDocsByFarmerID(ctx context.Context, farmerID uuid.UUID) (*model.FarmerDocs, error)
	SetDocsVerified(ctx context.Context, farmerID uuid.UUID, verified bool) error
}

type farmerRepository struct {
	db *gorm.DB
}

func NewFarmerRepository(db *gorm.DB) FarmerRepository {
	return &farmerRepository{db: db}
}

func (r *farmerRepository) CreateProfile(ctx context.Context, profile *model.FarmerProfile) error {
	return GetDB(ctx, r.db).Create(profile).Error
}

func (r *farmerRepository) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*model.FarmerProfile, error) {
	var profile model.FarmerProfile
	if err := GetDB(ctx, r.db).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserIDForUpdate takes a row lock so concurrent approve/reject
// calls on the same farmer serialize instead of interleaving.
func (r *farmerRepository) GetProfileByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*model.FarmerProfile, error) {
	var profile model.FarmerProfile
	err := lockForUpdate(GetDB(ctx, r.db)).
		First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *farmerRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*model.FarmerProfile, error) {
	var profile model.FarmerProfile
	if err := GetDB(ctx, r.db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *farmerRepository) UpdateProfile(ctx context.Context, profile *model.FarmerProfile) error {
	return GetDB(ctx, r.db).Save(profile).Error
}

func (r *farmerRepository) ListByStatus(ctx context.Context, status string, page, limit int) ([]model.FarmerProfile, int64, error) {
	var profiles []model.FarmerProfile
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.FarmerProfile{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("User").Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Find(&profiles).Error; err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

// ListApprovedWithCoords returns discovery candidates: approved profiles that
// have both coordinates set. Distance filtering happens in the service layer.
func (r *farmerRepository) ListApprovedWithCoords(ctx context.Context) ([]model.FarmerProfile, error) {
	var profiles []model.FarmerProfile
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("status = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", model.FarmerStatusApproved).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// ListApprovedWithCoordsByCategory restricts candidates to farmers with at
// least one available product in the given category.
func (r *farmerRepository) ListApprovedWithCoordsByCategory(ctx context.Context, categoryID uuid.UUID) ([]model.FarmerProfile, error) {
	var profiles []model.FarmerProfile
	err := GetDB(ctx, r.db).
		Preload("User").
		Where("status = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", model.FarmerStatusApproved).
		Where("id IN (?)", GetDB(ctx, r.db).
			Model(&model.Product{}).
			Select("farmer_id").
			Where("category_id = ? AND is_available = ?", categoryID, true)).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpsertDocs creates or overwrites the single docs row for a farmer profile
func (r *farmerRepository) UpsertDocs(ctx context.Context, docs *model.FarmerDocs) error {
	db := GetDB(ctx, r.db)
	var existing model.FarmerDocs
	err := db.First(&existing, "farmer_id = ?", docs.FarmerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(docs).Error
	}
	if err != nil {
		return err
	}
	docs.ID = existing.ID
	docs.CreatedAt = existing.CreatedAt
	return db.Save(docs).Error
}

func (r *farmerRepository) GetDocsByFarmerID(ctx context.Context, farmerID uuid.UUID) (*model.FarmerDocs, error) {
	var docs model.FarmerDocs
	if err := GetDB(ctx, r.db).First(&docs, "farmer_id = ?", farmerID).Error; err != nil {
		return nil, err
	}
	return &docs, nil
}

// SetDocsVerified flips the verification flag keyed by FarmerProfile.ID
func (r *farmerRepository) SetDocsVerified(ctx context.Context, farmerID uuid.UUID, verified bool) error {
	return GetDB(ctx, r.db).
		Model(&model.FarmerDocs{}).
		Where("farmer_id = ?", farmerID).
		Update("is_doc_verified", verified).Error
}
