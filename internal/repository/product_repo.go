package repository

import (
	"context"

	"milkeyway/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository is the data access layer for products and categories
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Product, error)
	CountAvailableByFarmers(ctx context.Context, farmerIDs []uuid.UUID) (map[uuid.UUID]int64, error)

	ListCategories(ctx context.Context) ([]model.ProductCategory, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*model.ProductCategory, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Preload("Category").
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

// CountAvailableByFarmers aggregates available product counts for a batch of
// farmer profile ids; farmers without products are simply absent from the map.
func (r *productRepository) CountAvailableByFarmers(ctx context.Context, farmerIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(farmerIDs) == 0 {
		return map[uuid.UUID]int64{}, nil
	}

	type row struct {
		FarmerID uuid.UUID
		Count    int64
	}
	var rows []row
	err := GetDB(ctx, r.db).
		Model(&model.Product{}).
		Select("farmer_id, COUNT(*) as count").
		Where("farmer_id IN ? AND is_available = ?", farmerIDs, true).
		Group("farmer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.FarmerID] = r.Count
	}
	return counts, nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	var categories []model.ProductCategory
	err := GetDB(ctx, r.db).Order("name").Find(&categories).Error
	return categories, err
}

func (r *productRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*model.ProductCategory, error) {
	var category model.ProductCategory
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
