package service

import (
	"context"
	"errors"

	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository"
	"gorm.io/gorm"
)

// LifecycleService validates and applies line-item status moves and keeps
// the order-level closed flag in sync.
type LifecycleService interface {
	// UpdateStatus moves the item to next if the status table allows it.
	// Re-asserting the current status is a no-op.
	UpdateStatus(ctx context.Context, itemID uint64, next model.Status) error

	// UpdatePaymentStatus reacts to the payment processor's verdict:
	// settled moves due items forward (in process for in-stock stock
	// items, waiting otherwise); unsettled moves due items back to
	// payment pending unless they already failed.
	UpdatePaymentStatus(ctx context.Context, itemID uint64, settled bool) error

	// RecomputeClosed rederives and persists the order's closed flag.
	RecomputeClosed(ctx context.Context, orderID uint64) (bool, error)
}

type lifecycleService struct {
	store repository.Store
}

func NewLifecycleService(store repository.Store) LifecycleService {
	return &lifecycleService{store: store}
}

func (s *lifecycleService) UpdateStatus(ctx context.Context, itemID uint64, next model.Status) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		item, err := tx.Carts().FindItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := applyStatus(item, next); err != nil {
			return err
		}
		return tx.Carts().SaveItem(ctx, item)
	})
}

func (s *lifecycleService) UpdatePaymentStatus(ctx context.Context, itemID uint64, settled bool) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		item, err := tx.Carts().FindItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var perr error
		if settled {
			perr = settleItem(item)
		} else {
			perr = unsettleItem(item)
		}
		if perr != nil {
			return perr
		}
		return tx.Carts().SaveItem(ctx, item)
	})
}

func (s *lifecycleService) RecomputeClosed(ctx context.Context, orderID uint64) (bool, error) {
	var closed bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var terr error
		closed, terr = recomputeClosed(ctx, tx, orderID)
		return terr
	})
	return closed, err
}

func applyStatus(item *model.CartLineItem, next model.Status) error {
	st, err := item.Status.Transition(next)
	if err != nil {
		return err
	}
	item.Status = st
	return nil
}

// settleItem moves a payment-due, non-final item forward once its payment
// cleared. Items already being handled keep their status.
func settleItem(item *model.CartLineItem) error {
	st := item.Status
	if !st.PaymentDue() || st.Final() {
		return nil
	}
	if st == model.StatusBeingPacked || st == model.StatusInProcess {
		return nil
	}
	next := model.StatusWaiting
	if item.Stage == model.StageStock && item.Product.InStock {
		next = model.StatusInProcess
	}
	return applyStatus(item, next)
}

func unsettleItem(item *model.CartLineItem) error {
	st := item.Status
	if !st.PaymentDue() || st.Final() || st == model.StatusPaymentFailed {
		return nil
	}
	return applyStatus(item, model.StatusPaymentPending)
}

func recomputeClosed(ctx context.Context, tx repository.Store, orderID uint64) (bool, error) {
	o, err := tx.Orders().FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}
	o.Closed = o.ComputeClosed()
	return o.Closed, tx.Orders().Save(ctx, o)
}
