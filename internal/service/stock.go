package service

import (
	"context"
	"fmt"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository"
	"github.com/rs/zerolog"
)

// StockService is the discrete-unit side of inventory: adjustments create
// or destroy units, reservations tie them to line items.
type StockService interface {
	// AdjustQty creates qtyDiff units (positive) or destroys the oldest
	// live unshipped units (negative), recording who and why. A zero diff
	// is rejected.
	AdjustQty(ctx context.Context, skuID uint64, qtyDiff int, reason, actor string) error

	// Reserve links exactly count available units to the line item.
	// Callers must cap count to availability first; a shortfall here is an
	// invariant violation.
	Reserve(ctx context.Context, itemID uint64, count int) error

	// Release unlinks every unit held by the line item. Idempotent.
	Release(ctx context.Context, itemID uint64) error
}

type stockService struct {
	store repository.Store
	clock clock.Clock
	log   zerolog.Logger
}

func NewStockService(store repository.Store, clk clock.Clock, log zerolog.Logger) StockService {
	return &stockService{store: store, clock: clk, log: log}
}

func (s *stockService) AdjustQty(ctx context.Context, skuID uint64, qtyDiff int, reason, actor string) error {
	if qtyDiff == 0 {
		return ErrZeroAdjustment
	}
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		adj := &model.StockAdjustment{SkuID: skuID, QtyDiff: qtyDiff, Reason: reason, Actor: actor}
		if err := tx.StockUnits().CreateAdjustment(ctx, adj); err != nil {
			return err
		}
		if qtyDiff > 0 {
			return tx.StockUnits().CreateUnits(ctx, skuID, adj.ID, qtyDiff)
		}
		n := -qtyDiff
		units, err := tx.StockUnits().LockLiveOldest(ctx, skuID, n)
		if err != nil {
			return err
		}
		if len(units) < n {
			return fmt.Errorf("%w: sku %d has %d live units, adjustment removes %d",
				ErrInsufficientUnits, skuID, len(units), n)
		}
		ids := make([]uint64, len(units))
		for i := range units {
			ids[i] = units[i].ID
		}
		return tx.StockUnits().Destroy(ctx, ids, s.clock.Now())
	})
	if err != nil {
		return err
	}
	s.log.Info().Uint64("sku_id", skuID).Int("diff", qtyDiff).Str("actor", actor).Msg("stock adjusted")
	return nil
}

func (s *stockService) Reserve(ctx context.Context, itemID uint64, count int) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		item, err := tx.Carts().FindItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item.SkuID == nil {
			return fmt.Errorf("%w: line item %d has no sku", ErrInsufficientUnits, itemID)
		}
		units, err := tx.StockUnits().LockAvailable(ctx, *item.SkuID, item.ID, count)
		if err != nil {
			return err
		}
		if len(units) < count {
			return fmt.Errorf("%w: sku %d has %d available, requested %d",
				ErrInsufficientUnits, *item.SkuID, len(units), count)
		}
		ids := make([]uint64, len(units))
		for i := range units {
			ids[i] = units[i].ID
		}
		return tx.StockUnits().Assign(ctx, ids, item.ID)
	})
}

func (s *stockService) Release(ctx context.Context, itemID uint64) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		return tx.StockUnits().Release(ctx, itemID)
	})
}
