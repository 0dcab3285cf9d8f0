package service

import (
	"context"
	"testing"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCarts(ms *memstore.Memstore) CartService {
	return NewCartService(ms, newReservations(ms), clock.Fixed{T: testNow})
}

func TestAddItem(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 5)
	svc := newCarts(ms)

	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	item, satisfied, err := svc.AddItem(context.Background(), cart.ID, productID, u64p(skuID), 2, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, satisfied)
	assert.Equal(t, model.StatusCart, item.Status)
	assert.Equal(t, model.StageStock, item.Stage)
	assert.Equal(t, 2, item.QtyDesired)
	assert.True(t, item.Price.Equal(decimal.NewFromInt(10)), "price comes from the product, was %s", item.Price)
	assert.True(t, item.Amount().Equal(decimal.NewFromInt(24)))

	stored, err := ms.Carts().FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Equal(t, testNow, stored.UpdatedAt, "adding an item bumps the staleness clock")
}

func TestAddItemRejectsZeroQty(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 5)
	svc := newCarts(ms)
	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, _, err = svc.AddItem(context.Background(), cart.ID, productID, u64p(skuID), 0, decimal.Zero)
	assert.Error(t, err)
}

func TestRefreshCartSkipsCheckedOutItems(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 5)
	cartID := ms.AddCart(model.Cart{})
	open := seedCartItem(ms, model.CartLineItem{
		CartID: cartID, ProductID: productID, SkuID: u64p(skuID), QtyDesired: 2,
	})
	locked := seedCartItem(ms, model.CartLineItem{
		CartID: cartID, ProductID: productID, SkuID: u64p(skuID), QtyDesired: 1,
		Status: model.StatusWaiting, Stage: model.StageStock,
	})

	results, err := newCarts(ms).RefreshCart(context.Background(), cartID)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]bool{open: true}, results)

	item, _ := ms.Item(locked)
	assert.Equal(t, model.StatusWaiting, item.Status, "post-checkout items are not re-reserved")
}

func TestAddItemUnknownProduct(t *testing.T) {
	ms := memstore.New()
	svc := newCarts(ms)
	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, _, err = svc.AddItem(context.Background(), cart.ID, 99, nil, 1, decimal.Zero)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddItemForeignSku(t *testing.T) {
	ms := memstore.New()
	productID, _ := seedStockSetup(ms, 5)
	otherSku := ms.AddSku(model.Sku{ProductID: productID + 100, Code: "OTHER-1"})
	svc := newCarts(ms)
	cart, err := svc.CreateCart(context.Background())
	require.NoError(t, err)

	_, _, err = svc.AddItem(context.Background(), cart.ID, productID, u64p(otherSku), 1, decimal.Zero)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMissingCart(t *testing.T) {
	_, err := newCarts(memstore.New()).Get(context.Background(), 12)
	assert.ErrorIs(t, err, ErrNotFound)
}
