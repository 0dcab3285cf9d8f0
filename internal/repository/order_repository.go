package repository

import (
	"context"

	"github.com/makerloop/commerce-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	FindByCart(ctx context.Context, cartID uint64) (*model.Order, error)
	Save(ctx context.Context, o *model.Order) error
	CreateShipment(ctx context.Context, s *model.Shipment) error
	CreatePayment(ctx context.Context, p *model.Payment) error
	CreateComment(ctx context.Context, c *model.OrderComment) error
}

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepository) preload(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Cart").
		Preload("Cart.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Cart.Items.Product").
		Preload("Cart.Items.Product.Project").
		Preload("Payments").
		Preload("Shipments")
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	var o model.Order
	if err := r.preload(r.db.WithContext(ctx)).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) FindByCart(ctx context.Context, cartID uint64) (*model.Order, error) {
	var o model.Order
	if err := r.preload(r.db.WithContext(ctx)).
		Where("cart_id = ?", cartID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) Save(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Omit("Cart", "Payments", "Shipments", "Comments").Save(o).Error
}

func (r *orderRepository) CreateShipment(ctx context.Context, s *model.Shipment) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *orderRepository) CreatePayment(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *orderRepository) CreateComment(ctx context.Context, c *model.OrderComment) error {
	return r.db.WithContext(ctx).Create(c).Error
}
