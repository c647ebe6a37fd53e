package repository

import (
	"context"
	"time"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestRepository is the data access layer for connection requests and the
// materialized connections they produce.
type RequestRepository interface {
	Create(ctx context.Context, req *model.FarmerRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.FarmerRequest, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FarmerRequest, error)
	Update(ctx context.Context, req *model.FarmerRequest) error
	HasPendingDuplicate(ctx context.Context, consumerID, farmerID uuid.UUID, productInterest string) (bool, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID, status string, page, limit int) ([]model.FarmerRequest, int64, error)
	ListByConsumer(ctx context.Context, consumerID uuid.UUID, status string, page, limit int) ([]model.FarmerRequest, int64, error)

	EnsureConnection(ctx context.Context, farmerID, consumerID uuid.UUID) (*model.Connection, error)
	ListConnectionsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Connection, error)
	ListConnectionsByConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Connection, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.FarmerRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.FarmerRequest, error) {
	var req model.FarmerRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByIDForUpdate locks the request row so a double respond serializes and
// the second caller sees the already-closed status.
func (r *requestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.FarmerRequest, error) {
	var req model.FarmerRequest
	err := lockForUpdate(GetDB(ctx, r.db)).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) Update(ctx context.Context, req *model.FarmerRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

// HasPendingDuplicate reports whether the consumer already has an open request
// to the same farmer for the same product interest.
func (r *requestRepository) HasPendingDuplicate(ctx context.Context, consumerID, farmerID uuid.UUID, productInterest string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.FarmerRequest{}).
		Where("consumer_id = ? AND farmer_id = ? AND product_interest = ? AND status = ?",
			consumerID, farmerID, productInterest, model.RequestStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *requestRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID, status string, page, limit int) ([]model.FarmerRequest, int64, error) {
	return r.list(ctx, "farmer_id", farmerID, status, page, limit)
}

func (r *requestRepository) ListByConsumer(ctx context.Context, consumerID uuid.UUID, status string, page, limit int) ([]model.FarmerRequest, int64, error) {
	return r.list(ctx, "consumer_id", consumerID, status, page, limit)
}

func (r *requestRepository) list(ctx context.Context, column string, id uuid.UUID, status string, page, limit int) ([]model.FarmerRequest, int64, error) {
	var requests []model.FarmerRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.FarmerRequest{}).Where(column+" = ?", id)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Where(column+" = ?", id).Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// EnsureConnection creates the farmer/consumer link if absent and bumps
// last_interaction_at either way. Idempotent on the unique pair index.
func (r *requestRepository) EnsureConnection(ctx context.Context, farmerID, consumerID uuid.UUID) (*model.Connection, error) {
	db := GetDB(ctx, r.db)
	conn := model.Connection{
		FarmerID:          farmerID,
		ConsumerID:        consumerID,
		LastInteractionAt: time.Now(),
	}
	err := db.
		Where("farmer_id = ? AND consumer_id = ?", farmerID, consumerID).
		FirstOrCreate(&conn).Error
	if err != nil {
		return nil, err
	}
	conn.LastInteractionAt = time.Now()
	if err := db.Save(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *requestRepository) ListConnectionsByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Connection, error) {
	var conns []model.Connection
	err := GetDB(ctx, r.db).
		Where("farmer_id = ?", farmerID).
		Order("last_interaction_at DESC").
		Find(&conns).Error
	return conns, err
}

func (r *requestRepository) ListConnectionsByConsumer(ctx context.Context, consumerID uuid.UUID) ([]model.Connection, error) {
	var conns []model.Connection
	err := GetDB(ctx, r.db).
		Where("consumer_id = ?", consumerID).
		Order("last_interaction_at DESC").
		Find(&conns).Error
	return conns, err
}
