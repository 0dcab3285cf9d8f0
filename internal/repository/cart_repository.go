package repository

import (
	"context"
	"time"

	"github.com/makerloop/commerce-backend/internal/model"
	"gorm.io/gorm"
)

type CartRepository interface {
	Create(ctx context.Context, cart *model.Cart) error
	FindByID(ctx context.Context, id uint64) (*model.Cart, error)
	// Touch bumps the staleness clock to at.
	Touch(ctx context.Context, cartID uint64, at time.Time) error

	FindItem(ctx context.Context, id uint64) (*model.CartLineItem, error)
	CreateItem(ctx context.Context, item *model.CartLineItem) error
	SaveItem(ctx context.Context, item *model.CartLineItem) error

	// ClaimedQty sums desired quantities of items in the given stages for
	// the product, excluding excludeItemID and items that no longer hold a
	// claim. Callers must hold the product's batch locks first.
	ClaimedQty(ctx context.Context, productID uint64, stages []model.Stage, excludeItemID uint64) (int, error)

	// FindStale returns pre-checkout carts untouched since cutoff whose
	// items are all still in the initial cart status.
	FindStale(ctx context.Context, cutoff time.Time) ([]model.Cart, error)

	// ItemsByProjectStatus returns checked-out items of the project in the
	// given status, with their products loaded.
	ItemsByProjectStatus(ctx context.Context, projectID uint64, status model.Status) ([]model.CartLineItem, error)
}

type cartRepository struct {
	db *gorm.DB
}

func (r *cartRepository) Create(ctx context.Context, cart *model.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *cartRepository) FindByID(ctx context.Context, id uint64) (*model.Cart, error) {
	var cart model.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Project").
		First(&cart, id).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Touch(ctx context.Context, cartID uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", at).Error
}

func (r *cartRepository) FindItem(ctx context.Context, id uint64) (*model.CartLineItem, error) {
	var item model.CartLineItem
	if err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Project").
		Preload("Product.Batches", func(db *gorm.DB) *gorm.DB {
			return db.Order("ship_at ASC")
		}).
		Preload("Sku").
		Preload("Sku.OptionValues").
		First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(ctx context.Context, item *model.CartLineItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepository) SaveItem(ctx context.Context, item *model.CartLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *cartRepository) ClaimedQty(ctx context.Context, productID uint64, stages []model.Stage, excludeItemID uint64) (int, error) {
	var claimed int64
	err := r.db.WithContext(ctx).
		Model(&model.CartLineItem{}).
		Select("COALESCE(SUM(qty_desired), 0)").
		Where("product_id = ? AND stage IN ? AND id <> ?", productID, stages, excludeItemID).
		Where("status NOT IN ?", []model.Status{model.StatusCancelled, model.StatusAbandoned}).
		Scan(&claimed).Error
	return int(claimed), err
}

func (r *cartRepository) FindStale(ctx context.Context, cutoff time.Time) ([]model.Cart, error) {
	var carts []model.Cart
	if err := r.db.WithContext(ctx).
		Joins("LEFT JOIN orders ON orders.cart_id = carts.id").
		Where("orders.id IS NULL AND carts.updated_at < ?", cutoff).
		Preload("Items").
		Find(&carts).Error; err != nil {
		return nil, err
	}
	// Staleness only applies while every item is still pre-checkout.
	stale := carts[:0]
	for _, c := range carts {
		all := true
		for i := range c.Items {
			if c.Items[i].Status != model.StatusCart {
				all = false
				break
			}
		}
		if all && len(c.Items) > 0 {
			stale = append(stale, c)
		}
	}
	return stale, nil
}

func (r *cartRepository) ItemsByProjectStatus(ctx context.Context, projectID uint64, status model.Status) ([]model.CartLineItem, error) {
	var items []model.CartLineItem
	if err := r.db.WithContext(ctx).
		Joins("JOIN products ON products.id = cart_line_items.product_id").
		Where("products.project_id = ? AND cart_line_items.status = ?", projectID, status).
		Preload("Product").
		Preload("Product.Project").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
