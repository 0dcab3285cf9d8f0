package repository

import (
	"context"

	"github.com/makerloop/commerce-backend/internal/model"
	"gorm.io/gorm"
)

type ProductRepository interface {
	// FindByID loads the product with its project and its batches in
	// ship-time order.
	FindByID(ctx context.Context, id uint64) (*model.Product, error)
	FindSku(ctx context.Context, id uint64) (*model.Sku, error)
	Save(ctx context.Context, p *model.Product) error
}

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("Batches", func(db *gorm.DB) *gorm.DB {
			return db.Order("ship_at ASC")
		}).
		First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) FindSku(ctx context.Context, id uint64) (*model.Sku, error) {
	var s model.Sku
	if err := r.db.WithContext(ctx).
		Preload("OptionValues").
		First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *productRepository) Save(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}
