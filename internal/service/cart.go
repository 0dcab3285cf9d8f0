package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartService is the thin entry the web layer uses to build carts; all
// reservation decisions stay in ReservationService.
type CartService interface {
	CreateCart(ctx context.Context) (*model.Cart, error)
	Get(ctx context.Context, cartID uint64) (*model.Cart, error)

	// AddItem appends a line item and immediately reserves for it. The
	// bool mirrors Refresh: false means the quantity was reduced.
	AddItem(ctx context.Context, cartID, productID uint64, skuID *uint64, qty int, shippingPrice decimal.Decimal) (*model.CartLineItem, bool, error)

	// RefreshCart re-runs reservation for every pre-checkout item and
	// reports per-item satisfaction.
	RefreshCart(ctx context.Context, cartID uint64) (map[uint64]bool, error)
}

type cartService struct {
	store        repository.Store
	reservations ReservationService
	clock        clock.Clock
}

func NewCartService(store repository.Store, reservations ReservationService, clk clock.Clock) CartService {
	return &cartService{store: store, reservations: reservations, clock: clk}
}

func (s *cartService) CreateCart(ctx context.Context) (*model.Cart, error) {
	cart := &model.Cart{}
	if err := s.store.Carts().Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartService) Get(ctx context.Context, cartID uint64) (*model.Cart, error) {
	cart, err := s.store.Carts().FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, cartID, productID uint64, skuID *uint64, qty int, shippingPrice decimal.Decimal) (*model.CartLineItem, bool, error) {
	if qty < 1 {
		return nil, false, errors.New("quantity must be at least 1")
	}
	if _, err := s.store.Products().FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}
	if skuID != nil {
		sku, err := s.store.Products().FindSku(ctx, *skuID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, ErrNotFound
			}
			return nil, false, err
		}
		if sku.ProductID != productID {
			return nil, false, fmt.Errorf("%w: sku %d does not belong to product %d", ErrNotFound, *skuID, productID)
		}
	}
	item := &model.CartLineItem{
		CartID:        cartID,
		ProductID:     productID,
		SkuID:         skuID,
		QtyDesired:    qty,
		Price:         decimal.Zero,
		ShippingPrice: shippingPrice,
		Stage:         model.StageInactive,
		Status:        model.StatusCart,
	}
	if err := s.store.Carts().CreateItem(ctx, item); err != nil {
		return nil, false, err
	}
	satisfied, err := s.reservations.Refresh(ctx, item.ID)
	if err != nil {
		return nil, false, err
	}
	if err := s.store.Carts().Touch(ctx, cartID, s.clock.Now()); err != nil {
		return nil, false, err
	}
	refreshed, err := s.store.Carts().FindItem(ctx, item.ID)
	if err != nil {
		return nil, false, err
	}
	return refreshed, satisfied, nil
}

func (s *cartService) RefreshCart(ctx context.Context, cartID uint64) (map[uint64]bool, error) {
	cart, err := s.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	results := make(map[uint64]bool, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.Status != model.StatusCart {
			continue
		}
		ok, err := s.reservations.Refresh(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		results[item.ID] = ok
	}
	if err := s.store.Carts().Touch(ctx, cartID, s.clock.Now()); err != nil {
		return nil, err
	}
	return results, nil
}
