package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/notify"
	"github.com/makerloop/commerce-backend/internal/payment"
	"github.com/makerloop/commerce-backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementService moves orders toward closure: checkout, cancellation,
// shipment, abandonment, payment capture, and campaign outcome handling.
type SettlementService interface {
	// Checkout binds a cart to a fresh order and moves its items out of
	// the cart status: unfunded for still-crowdfunding claims, payment
	// pending otherwise.
	Checkout(ctx context.Context, cartID uint64) (*model.Order, error)

	// Cancel releases each item's stock and moves it to cancelled,
	// recording a comment.
	Cancel(ctx context.Context, orderID uint64, itemIDs []uint64, reason, actor string) error

	// ShipItems records one shipment covering the given items and marks
	// them shipped. The item list must be non-empty.
	ShipItems(ctx context.Context, orderID uint64, itemIDs []uint64, tracking string, cost decimal.Decimal, shippedByCreator bool, actor string, shippedAt *time.Time) (*model.Shipment, error)

	// Abandon gives up on an order with failed payments: stock released
	// everywhere, payment-failed items moved to abandoned.
	Abandon(ctx context.Context, orderID uint64) error

	// CaptureOrder charges the gap between what is due and what was paid.
	// A decline moves due items to payment failed and schedules a retry
	// notice; it is not an error.
	CaptureOrder(ctx context.Context, orderID uint64) error

	// ProjectSucceeded records the campaign outcome on the project and
	// promotes its unfunded items to payment pending; ProjectFailed
	// cancels them instead.
	ProjectSucceeded(ctx context.Context, projectID uint64) error
	ProjectFailed(ctx context.Context, projectID uint64) error
}

type settlementService struct {
	store    repository.Store
	gateway  payment.Gateway
	notifier notify.Notifier
	clock    clock.Clock
	log      zerolog.Logger
}

func NewSettlementService(store repository.Store, gw payment.Gateway, n notify.Notifier, clk clock.Clock, log zerolog.Logger) SettlementService {
	return &settlementService{store: store, gateway: gw, notifier: n, clock: clk, log: log}
}

func (s *settlementService) Checkout(ctx context.Context, cartID uint64) (*model.Order, error) {
	var order *model.Order
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		cart, err := tx.Carts().FindByID(ctx, cartID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if len(cart.Items) == 0 {
			return fmt.Errorf("%w: cart %d is empty", ErrNoItems, cartID)
		}
		if _, err := tx.Orders().FindByCart(ctx, cartID); err == nil {
			return ErrAlreadyCheckedOut
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		order = &model.Order{CartID: cartID}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		for i := range cart.Items {
			item := &cart.Items[i]
			next := model.StatusPaymentPending
			if item.Stage == model.StageCrowdfunding && item.Product.Project.Crowdfunding() {
				next = model.StatusUnfunded
			}
			if err := applyStatus(item, next); err != nil {
				return err
			}
			if err := tx.Carts().SaveItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint64("order_id", order.ID).Uint64("cart_id", cartID).Msg("checkout complete")
	return order, nil
}

func (s *settlementService) Cancel(ctx context.Context, orderID uint64, itemIDs []uint64, reason, actor string) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		for _, id := range itemIDs {
			item := findItem(o, id)
			if item == nil {
				return fmt.Errorf("%w: item %d not on order %d", ErrNotFound, id, orderID)
			}
			if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
				return err
			}
			if err := applyStatus(item, model.StatusCancelled); err != nil {
				return err
			}
			if err := tx.Carts().SaveItem(ctx, item); err != nil {
				return err
			}
		}
		comment := &model.OrderComment{OrderID: orderID, Actor: actor, Body: "cancelled: " + reason}
		if err := tx.Orders().CreateComment(ctx, comment); err != nil {
			return err
		}
		_, err = recomputeClosed(ctx, tx, orderID)
		return err
	})
}

func (s *settlementService) ShipItems(ctx context.Context, orderID uint64, itemIDs []uint64, tracking string, cost decimal.Decimal, shippedByCreator bool, actor string, shippedAt *time.Time) (*model.Shipment, error) {
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("%w: shipment needs at least one item", ErrNoItems)
	}
	at := s.clock.Now()
	if shippedAt != nil {
		at = *shippedAt
	}
	var shipment *model.Shipment
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		shipment = &model.Shipment{
			OrderID:          orderID,
			Tracking:         tracking,
			Cost:             cost,
			ShippedByCreator: shippedByCreator,
			ShippedAt:        at,
		}
		if err := tx.Orders().CreateShipment(ctx, shipment); err != nil {
			return err
		}
		for _, id := range itemIDs {
			item := findItem(o, id)
			if item == nil {
				return fmt.Errorf("%w: item %d not on order %d", ErrNotFound, id, orderID)
			}
			item.ShippedAt = &shipment.ShippedAt
			item.ShipmentID = &shipment.ID
			if err := applyStatus(item, model.StatusShipped); err != nil {
				return err
			}
			if err := tx.Carts().SaveItem(ctx, item); err != nil {
				return err
			}
		}
		comment := &model.OrderComment{OrderID: orderID, Actor: actor, Body: "shipped " + tracking}
		if err := tx.Orders().CreateComment(ctx, comment); err != nil {
			return err
		}
		_, err = recomputeClosed(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

func (s *settlementService) Abandon(ctx context.Context, orderID uint64) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		failed := false
		for i := range o.Cart.Items {
			if o.Cart.Items[i].Status == model.StatusPaymentFailed {
				failed = true
				break
			}
		}
		if !failed {
			return fmt.Errorf("%w: order %d", ErrNoFailedItems, orderID)
		}
		for i := range o.Cart.Items {
			item := &o.Cart.Items[i]
			if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
				return err
			}
			if item.Status != model.StatusPaymentFailed {
				continue
			}
			if err := applyStatus(item, model.StatusAbandoned); err != nil {
				return err
			}
			if err := tx.Carts().SaveItem(ctx, item); err != nil {
				return err
			}
		}
		_, err = recomputeClosed(ctx, tx, orderID)
		return err
	})
}

func (s *settlementService) CaptureOrder(ctx context.Context, orderID uint64) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		o, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		due := o.DueAmount().Sub(o.PaidAmount())
		if due.LessThanOrEqual(decimal.Zero) {
			return nil
		}

		auth, err := s.gateway.Authorize(ctx, due, fmt.Sprintf("order %d", o.ID))
		if errors.Is(err, payment.ErrDeclined) {
			s.log.Warn().Uint64("order_id", o.ID).Str("amount", due.String()).Msg("capture declined")
			for i := range o.Cart.Items {
				item := &o.Cart.Items[i]
				if !item.Active() || !item.Status.PaymentDue() || item.Status.Final() {
					continue
				}
				if item.Status == model.StatusPaymentFailed {
					continue
				}
				if err := applyStatus(item, model.StatusPaymentFailed); err != nil {
					return err
				}
				if err := tx.Carts().SaveItem(ctx, item); err != nil {
					return err
				}
			}
			return s.notifier.PaymentRetryNotice(ctx, o.ID)
		}
		if err != nil {
			return err
		}

		pay := &model.Payment{OrderID: o.ID, Amount: due, TransactionID: auth.TransactionID}
		if err := tx.Orders().CreatePayment(ctx, pay); err != nil {
			return err
		}
		for i := range o.Cart.Items {
			item := &o.Cart.Items[i]
			if err := settleItem(item); err != nil {
				return err
			}
			if err := tx.Carts().SaveItem(ctx, item); err != nil {
				return err
			}
		}
		s.log.Info().Uint64("order_id", o.ID).Str("amount", due.String()).Str("txn", auth.TransactionID).Msg("payment captured")
		_, err = recomputeClosed(ctx, tx, orderID)
		return err
	})
}

func (s *settlementService) ProjectSucceeded(ctx context.Context, projectID uint64) error {
	return s.projectOutcome(ctx, projectID, model.ProjectFunded, model.StatusPaymentPending, false)
}

func (s *settlementService) ProjectFailed(ctx context.Context, projectID uint64) error {
	return s.projectOutcome(ctx, projectID, model.ProjectFailed, model.StatusCancelled, true)
}

func (s *settlementService) projectOutcome(ctx context.Context, projectID uint64, outcome model.ProjectStatus, next model.Status, releaseStock bool) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().FindByID(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		project.Status = outcome
		if err := tx.Projects().Save(ctx, project); err != nil {
			return err
		}

		items, err := tx.Carts().ItemsByProjectStatus(ctx, projectID, model.StatusUnfunded)
		if err != nil {
			return err
		}
		touched := map[uint64]bool{}
		for i := range items {
			item := &items[i]
			if releaseStock {
				if err := tx.StockUnits().Release(ctx, item.ID); err != nil {
					return err
				}
			}
			if err := applyStatus(item, next); err != nil {
				return err
			}
			if err := tx.Carts().SaveItem(ctx, item); err != nil {
				return err
			}
			o, err := tx.Orders().FindByCart(ctx, item.CartID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			touched[o.ID] = true
		}
		for orderID := range touched {
			if _, err := recomputeClosed(ctx, tx, orderID); err != nil {
				return err
			}
		}
		return nil
	})
}

func findItem(o *model.Order, id uint64) *model.CartLineItem {
	for i := range o.Cart.Items {
		if o.Cart.Items[i].ID == id {
			return &o.Cart.Items[i]
		}
	}
	return nil
}
