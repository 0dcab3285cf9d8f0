package repository

import (
	"context"
	"time"

	"github.com/makerloop/commerce-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockUnitRepository interface {
	// LockAvailable takes FOR UPDATE locks on up to limit units of the SKU
	// that are live, not shipped, and either unreserved or already held by
	// lineItemID. Ordered by id ascending so repeated calls converge on
	// the same units. Must be called inside InTx.
	LockAvailable(ctx context.Context, skuID, lineItemID uint64, limit int) ([]model.StockUnit, error)

	// LockLiveOldest locks up to limit live, unshipped units of the SKU,
	// oldest first, regardless of reservation. Used by downward stock
	// adjustments.
	LockLiveOldest(ctx context.Context, skuID uint64, limit int) ([]model.StockUnit, error)

	Assign(ctx context.Context, unitIDs []uint64, lineItemID uint64) error
	Release(ctx context.Context, lineItemID uint64) error
	ReservedBy(ctx context.Context, lineItemID uint64) ([]model.StockUnit, error)

	Destroy(ctx context.Context, unitIDs []uint64, at time.Time) error
	CreateAdjustment(ctx context.Context, adj *model.StockAdjustment) error
	CreateUnits(ctx context.Context, skuID, adjustmentID uint64, count int) error

	// CountLive is unshipped live units, reserved or not; CountAvailable
	// narrows to unreserved.
	CountLive(ctx context.Context, skuID uint64) (int, error)
	CountAvailable(ctx context.Context, skuID uint64) (int, error)
}

type stockUnitRepository struct {
	db *gorm.DB
}

// unshipped filters out units whose reserving line item has already shipped.
func (r *stockUnitRepository) unshipped(q *gorm.DB) *gorm.DB {
	return q.
		Joins("LEFT JOIN cart_line_items ON cart_line_items.id = stock_units.cart_line_item_id").
		Where("stock_units.cart_line_item_id IS NULL OR cart_line_items.shipped_at IS NULL")
}

func (r *stockUnitRepository) LockAvailable(ctx context.Context, skuID, lineItemID uint64, limit int) ([]model.StockUnit, error) {
	var units []model.StockUnit
	q := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "stock_units"}}).
		Where("stock_units.sku_id = ? AND stock_units.destroyed_at IS NULL", skuID).
		Where("stock_units.cart_line_item_id IS NULL OR stock_units.cart_line_item_id = ?", lineItemID)
	if err := r.unshipped(q).
		Order("stock_units.id ASC").
		Limit(limit).
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *stockUnitRepository) LockLiveOldest(ctx context.Context, skuID uint64, limit int) ([]model.StockUnit, error) {
	var units []model.StockUnit
	q := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "stock_units"}}).
		Where("stock_units.sku_id = ? AND stock_units.destroyed_at IS NULL", skuID)
	if err := r.unshipped(q).
		Order("stock_units.id ASC").
		Limit(limit).
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *stockUnitRepository) Assign(ctx context.Context, unitIDs []uint64, lineItemID uint64) error {
	if len(unitIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.StockUnit{}).
		Where("id IN ?", unitIDs).
		Update("cart_line_item_id", lineItemID).Error
}

func (r *stockUnitRepository) Release(ctx context.Context, lineItemID uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.StockUnit{}).
		Where("cart_line_item_id = ?", lineItemID).
		Update("cart_line_item_id", nil).Error
}

func (r *stockUnitRepository) ReservedBy(ctx context.Context, lineItemID uint64) ([]model.StockUnit, error) {
	var units []model.StockUnit
	if err := r.db.WithContext(ctx).
		Where("cart_line_item_id = ?", lineItemID).
		Order("id ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *stockUnitRepository) Destroy(ctx context.Context, unitIDs []uint64, at time.Time) error {
	if len(unitIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.StockUnit{}).
		Where("id IN ?", unitIDs).
		Update("destroyed_at", at).Error
}

func (r *stockUnitRepository) CreateAdjustment(ctx context.Context, adj *model.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(adj).Error
}

func (r *stockUnitRepository) CreateUnits(ctx context.Context, skuID, adjustmentID uint64, count int) error {
	units := make([]model.StockUnit, count)
	for i := range units {
		units[i] = model.StockUnit{SkuID: skuID, AdjustmentID: &adjustmentID}
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

func (r *stockUnitRepository) CountLive(ctx context.Context, skuID uint64) (int, error) {
	var n int64
	q := r.db.WithContext(ctx).
		Model(&model.StockUnit{}).
		Where("stock_units.sku_id = ? AND stock_units.destroyed_at IS NULL", skuID)
	err := r.unshipped(q).Count(&n).Error
	return int(n), err
}

func (r *stockUnitRepository) CountAvailable(ctx context.Context, skuID uint64) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.StockUnit{}).
		Where("sku_id = ? AND destroyed_at IS NULL AND cart_line_item_id IS NULL", skuID).
		Count(&n).Error
	return int(n), err
}
