package service

import (
	"context"
	"errors"
	"fmt"

	"milkeyway/internal/model"
	"milkeyway/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNotYourProduct  = errors.New("product does not belong to this farmer")
)

// --- DTOs ---

type CreateProductRequest struct {
	CategoryID  string `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Unit        string `json:"unit"`
}

type UpdateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Unit        string `json:"unit"`
	IsAvailable *bool  `json:"is_available"`
}

// ProductService manages an approved farmer's product listings
type ProductService interface {
	CreateProduct(ctx context.Context, farmerUserID uuid.UUID, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, farmerUserID, productID uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, farmerUserID, productID uuid.UUID) error
	ListMyProducts(ctx context.Context, farmerUserID uuid.UUID) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.ProductCategory, error)
}

type productService struct {
	farmers  repository.FarmerRepository
	products repository.ProductRepository
}

func NewProductService(farmers repository.FarmerRepository, products repository.ProductRepository) ProductService {
	return &productService{farmers: farmers, products: products}
}

func (s *productService) CreateProduct(ctx context.Context, farmerUserID uuid.UUID, req CreateProductRequest) (*model.Product, error) {
	farmer, err := s.approvedFarmer(ctx, farmerUserID)
	if err != nil {
		return nil, err
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category_id: %w", err)
	}
	if _, err := s.products.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, ErrCategoryNotFound
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("invalid price %q", req.Price)
	}

	unit := req.Unit
	if unit == "" {
		unit = "litre"
	}

	product := &model.Product{
		FarmerID:    farmer.ID,
		CategoryID:  categoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Unit:        unit,
		IsAvailable: true,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return s.products.GetByID(ctx, product.ID)
}

func (s *productService) UpdateProduct(ctx context.Context, farmerUserID, productID uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	farmer, err := s.approvedFarmer(ctx, farmerUserID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if product.FarmerID != farmer.ID {
		return nil, ErrNotYourProduct
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price != "" {
		price, err := decimal.NewFromString(req.Price)
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("invalid price %q", req.Price)
		}
		product.Price = price
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, farmerUserID, productID uuid.UUID) error {
	farmer, err := s.approvedFarmer(ctx, farmerUserID)
	if err != nil {
		return err
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if product.FarmerID != farmer.ID {
		return ErrNotYourProduct
	}
	return s.products.Delete(ctx, productID)
}

func (s *productService) ListMyProducts(ctx context.Context, farmerUserID uuid.UUID) ([]model.Product, error) {
	farmer, err := s.farmers.GetProfileByUserID(ctx, farmerUserID)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return s.products.ListByFarmer(ctx, farmer.ID)
}

func (s *productService) ListCategories(ctx context.Context) ([]model.ProductCategory, error) {
	return s.products.ListCategories(ctx)
}

func (s *productService) approvedFarmer(ctx context.Context, farmerUserID uuid.UUID) (*model.FarmerProfile, error) {
	farmer, err := s.farmers.GetProfileByUserID(ctx, farmerUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if farmer.Status != model.FarmerStatusApproved {
		return nil, ErrFarmerNotApproved
	}
	return farmer, nil
}
