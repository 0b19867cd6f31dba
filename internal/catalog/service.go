package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

const defaultListLimit = 100

// ErrProductNotFound indicates the requested product id has no matching record.
var ErrProductNotFound = errors.New("catalog: product not found")

// ServiceConfig describes the dependencies required for the catalog service.
type ServiceConfig struct {
	Database *gorm.DB
}

// Service implements product CRUD over the products table.
type Service struct {
	db *gorm.DB
}

// NewService constructs the catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("catalog: database connection required")
	}
	return &Service{db: cfg.Database}, nil
}

// Create persists a new product under the next sequential id.
func (s *Service) Create(ctx context.Context, input ProductInput) (Product, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return Product{}, err
	}

	product := Product{
		ID:          id,
		Name:        input.Name,
		Price:       input.Price,
		Rating:      input.Rating,
		Category:    input.Category,
		AgeRange:    input.AgeRange,
		Description: input.Description,
		Material:    input.Material,
		InStock:     input.InStock,
		Image:       input.Image,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return Product{}, err
	}
	return product, nil
}

// Get returns the product with the given id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

// List returns a page of products. A non-positive limit falls back to the default.
func (s *Service) List(ctx context.Context, offset, limit int) ([]Product, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	products := make([]Product, 0, limit)
	err := s.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Update applies the non-nil patch fields to an existing product.
func (s *Service) Update(ctx context.Context, id string, patch ProductPatch) (Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Rating != nil {
		product.Rating = *patch.Rating
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.AgeRange != nil {
		product.AgeRange = *patch.AgeRange
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Material != nil {
		product.Material = *patch.Material
	}
	if patch.InStock != nil {
		product.InStock = *patch.InStock
	}
	if patch.Image != nil {
		product.Image = *patch.Image
	}

	if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
		return Product{}, err
	}
	return product, nil
}

// Delete removes the product with the given id.
func (s *Service) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// nextID assigns ids the way the catalog always has: one past the highest
// numeric id currently stored. Non-numeric ids are ignored.
func (s *Service) nextID(ctx context.Context) (string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&Product{}).Pluck("id", &ids).Error; err != nil {
		return "", err
	}
	max := 0
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1), nil
}
