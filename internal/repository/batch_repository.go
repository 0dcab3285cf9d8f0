package repository

import (
	"context"

	"github.com/makerloop/commerce-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchRepository interface {
	// LockForProduct takes FOR UPDATE row locks on every batch of the
	// product and returns them in ship-time order. Must be called inside
	// InTx; the locks guard the read-decide-write window of batch
	// allocation.
	LockForProduct(ctx context.Context, productID uint64) ([]model.Batch, error)

	// QtyClaimed sums the desired quantities of items currently assigned
	// to the batch, excluding excludeItemID and items that no longer hold
	// a claim.
	QtyClaimed(ctx context.Context, batchID, excludeItemID uint64) (int, error)
}

type batchRepository struct {
	db *gorm.DB
}

func (r *batchRepository) LockForProduct(ctx context.Context, productID uint64) ([]model.Batch, error) {
	var batches []model.Batch
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ?", productID).
		Order("ship_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *batchRepository) QtyClaimed(ctx context.Context, batchID, excludeItemID uint64) (int, error) {
	var claimed int64
	err := r.db.WithContext(ctx).
		Model(&model.CartLineItem{}).
		Select("COALESCE(SUM(qty_desired), 0)").
		Where("batch_id = ? AND id <> ? AND status NOT IN ?", batchID, excludeItemID,
			[]model.Status{model.StatusCancelled, model.StatusAbandoned}).
		Scan(&claimed).Error
	return int(claimed), err
}
