package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ReservationService decides, per line item, which capacity pool a claim
// lands in and how much of the desired quantity can be satisfied.
type ReservationService interface {
	// Refresh re-prices the item and re-reserves capacity for it. Returns
	// true when the full desired quantity was satisfied; false means the
	// quantity was reduced in place to what supply allowed. A false result
	// is a business condition, never an error.
	Refresh(ctx context.Context, itemID uint64) (bool, error)

	// Expire drops every claim the item holds and parks it in the
	// inactive stage. Used on stale pre-checkout carts.
	Expire(ctx context.Context, itemID uint64) error
}

type reservationService struct {
	store repository.Store
	clock clock.Clock
	log   zerolog.Logger
}

func NewReservationService(store repository.Store, clk clock.Clock, log zerolog.Logger) ReservationService {
	return &reservationService{store: store, clock: clk, log: log}
}

// sourcing is the dispatch tag, resolved once per refresh since project
// status can change between cart loads.
type sourcing int

const (
	sourceCrowdfunding sourcing = iota
	sourceNonPhysical
	sourceStock
	sourcePreorder
)

func resolveSourcing(item *model.CartLineItem) sourcing {
	switch {
	case item.Product.Project.Crowdfunding():
		return sourceCrowdfunding
	case item.Product.NonPhysical:
		return sourceNonPhysical
	case item.Product.InStock:
		return sourceStock
	default:
		return sourcePreorder
	}
}

func (s *reservationService) Refresh(ctx context.Context, itemID uint64) (bool, error) {
	var satisfied bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		item, err := tx.Carts().FindItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		item.Price = item.Product.Price
		if item.Sku != nil {
			item.Price = item.Price.Add(item.Sku.Surcharge())
		}

		switch resolveSourcing(item) {
		case sourceCrowdfunding:
			satisfied, err = s.refreshCrowdfunding(ctx, tx, item)
		case sourceNonPhysical:
			satisfied, err = s.refreshNonPhysical(ctx, tx, item)
		case sourceStock:
			satisfied, err = s.refreshStock(ctx, tx, item)
		default:
			satisfied, err = s.refreshPreorder(ctx, tx, item)
		}
		if err != nil {
			return err
		}
		return tx.Carts().SaveItem(ctx, item)
	})
	if err != nil {
		return false, err
	}
	if !satisfied {
		s.log.Debug().Uint64("item_id", itemID).Msg("reservation reduced desired quantity")
	}
	return satisfied, nil
}

func (s *reservationService) refreshCrowdfunding(ctx context.Context, tx repository.Store, item *model.CartLineItem) (bool, error) {
	if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
		return false, err
	}
	item.Stage = model.StageCrowdfunding
	if item.Product.NonPhysical {
		item.BatchID = nil
		item.ExpectedShipAt = nil
		return true, nil
	}
	return s.allocateBatch(ctx, tx, item, []model.Stage{model.StageCrowdfunding})
}

func (s *reservationService) refreshPreorder(ctx context.Context, tx repository.Store, item *model.CartLineItem) (bool, error) {
	if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
		return false, err
	}
	item.Stage = model.StagePreorder
	if !item.Product.Project.AcceptsPreorders || !item.Product.AcceptsPreorders {
		item.QtyDesired = 0
		item.BatchID = nil
		item.ExpectedShipAt = nil
		return false, nil
	}
	// Preorders and crowdfunding claims drain the same batch pool.
	return s.allocateBatch(ctx, tx, item, []model.Stage{model.StageCrowdfunding, model.StagePreorder})
}

// allocateBatch caps the desired quantity against remaining pool capacity
// and assigns the first batch, in ship-time order, with room for the whole
// claim. Caller must already hold the product's batch locks via tx.
func (s *reservationService) allocateBatch(ctx context.Context, tx repository.Store, item *model.CartLineItem, stages []model.Stage) (bool, error) {
	batches, err := tx.Batches().LockForProduct(ctx, item.ProductID)
	if err != nil {
		return false, err
	}
	if len(batches) == 0 {
		return false, fmt.Errorf("%w: product %d", ErrNoBatches, item.ProductID)
	}
	consumed, err := tx.Carts().ClaimedQty(ctx, item.ProductID, stages, item.ID)
	if err != nil {
		return false, err
	}

	unbounded := false
	total := 0
	for i := range batches {
		if batches[i].Unbounded() {
			unbounded = true
		} else {
			total += *batches[i].Qty
		}
	}

	satisfied := true
	if !unbounded {
		available := total - consumed
		if available < 0 {
			available = 0
		}
		if available < item.QtyDesired {
			item.QtyDesired = available
			satisfied = false
		}
	}

	// Assign the first batch whose own claims leave room for the whole of
	// this claim. Summing per batch, not across the pool, means a
	// cancellation that frees an early batch reopens that batch even when
	// later ones already carry assignments.
	var chosen *model.Batch
	for i := range batches {
		b := &batches[i]
		if b.Unbounded() {
			chosen = b
			break
		}
		claimed, err := tx.Batches().QtyClaimed(ctx, b.ID, item.ID)
		if err != nil {
			return false, err
		}
		if claimed+item.QtyDesired <= *b.Qty {
			chosen = b
			break
		}
	}
	if chosen == nil {
		// Pool already over-subscribed; a zeroed claim still parks on the
		// final batch, anything else cannot be placed.
		if item.QtyDesired > 0 {
			return false, fmt.Errorf("%w: product %d has no batch with capacity", ErrNoBatches, item.ProductID)
		}
		chosen = &batches[len(batches)-1]
	}

	item.BatchID = &chosen.ID
	ship := chosen.ShipAt
	item.ExpectedShipAt = &ship
	return satisfied, nil
}

func (s *reservationService) refreshStock(ctx context.Context, tx repository.Store, item *model.CartLineItem) (bool, error) {
	if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
		return false, err
	}
	if item.SkuID == nil {
		return false, fmt.Errorf("%w: line item %d has no sku", ErrStockExhausted, item.ID)
	}
	units, err := tx.StockUnits().LockAvailable(ctx, *item.SkuID, item.ID, item.QtyDesired)
	if err != nil {
		return false, err
	}
	// The product says it is in stock; zero availability here is a broken
	// precondition, not a shortfall.
	if len(units) == 0 {
		return false, fmt.Errorf("%w: sku %d", ErrStockExhausted, *item.SkuID)
	}

	satisfied := true
	if len(units) < item.QtyDesired {
		item.QtyDesired = len(units)
		satisfied = false
	}
	ids := make([]uint64, len(units))
	for i := range units {
		ids[i] = units[i].ID
	}
	if err := tx.StockUnits().Assign(ctx, ids, item.ID); err != nil {
		return false, err
	}

	item.Stage = model.StageStock
	item.BatchID = nil
	ship := nextShippingDay(s.clock.Now())
	item.ExpectedShipAt = &ship
	return satisfied, nil
}

func (s *reservationService) refreshNonPhysical(ctx context.Context, tx repository.Store, item *model.CartLineItem) (bool, error) {
	if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
		return false, err
	}
	// Non-physical items carry the stock stage tag; nothing is reserved.
	item.Stage = model.StageStock
	item.BatchID = nil
	item.ExpectedShipAt = nil
	return true, nil
}

func (s *reservationService) Expire(ctx context.Context, itemID uint64) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		item, err := tx.Carts().FindItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
			return err
		}
		item.BatchID = nil
		item.ExpectedShipAt = nil
		item.Stage = model.StageInactive
		return tx.Carts().SaveItem(ctx, item)
	})
}

// nextShippingDay is the first non-weekend day after now, at UTC midnight.
func nextShippingDay(now time.Time) time.Time {
	d := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
