package service

import (
	"context"
	"testing"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStock(ms *memstore.Memstore) StockService {
	return NewStockService(ms, clock.Fixed{T: testNow}, zerolog.Nop())
}

func TestAdjustQtyCreatesUnits(t *testing.T) {
	ms := memstore.New()
	skuID := ms.AddSku(model.Sku{Code: "PIN-1"})

	require.NoError(t, newStock(ms).AdjustQty(context.Background(), skuID, 4, "restock", "warehouse"))

	n, err := ms.StockUnits().CountAvailable(context.Background(), skuID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestAdjustQtyDestroysOldestFirst(t *testing.T) {
	ms := memstore.New()
	skuID := ms.AddSku(model.Sku{Code: "PIN-1"})
	first := ms.AddUnit(model.StockUnit{SkuID: skuID})
	second := ms.AddUnit(model.StockUnit{SkuID: skuID})
	third := ms.AddUnit(model.StockUnit{SkuID: skuID})

	require.NoError(t, newStock(ms).AdjustQty(context.Background(), skuID, -2, "damaged", "warehouse"))

	for _, id := range []uint64{first, second} {
		u, _ := ms.Unit(id)
		require.NotNil(t, u.DestroyedAt, "unit %d should be destroyed", id)
		assert.Equal(t, testNow, *u.DestroyedAt)
	}
	u, _ := ms.Unit(third)
	assert.True(t, u.Live())

	n, err := ms.StockUnits().CountLive(context.Background(), skuID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAdjustQtyZeroRejected(t *testing.T) {
	ms := memstore.New()
	skuID := ms.AddSku(model.Sku{Code: "PIN-1"})
	err := newStock(ms).AdjustQty(context.Background(), skuID, 0, "noop", "warehouse")
	assert.ErrorIs(t, err, ErrZeroAdjustment)
}

func TestAdjustQtyInsufficientUnits(t *testing.T) {
	ms := memstore.New()
	skuID := ms.AddSku(model.Sku{Code: "PIN-1"})
	ms.AddUnit(model.StockUnit{SkuID: skuID})

	err := newStock(ms).AdjustQty(context.Background(), skuID, -3, "shrinkage", "warehouse")
	assert.ErrorIs(t, err, ErrInsufficientUnits)
}

func TestReserveAndRelease(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 3)
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, SkuID: u64p(skuID), QtyDesired: 2})

	svc := newStock(ms)
	require.NoError(t, svc.Reserve(context.Background(), itemID, 2))

	units, err := ms.StockUnits().ReservedBy(context.Background(), itemID)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	// Reserving again picks up the units already held.
	require.NoError(t, svc.Reserve(context.Background(), itemID, 2))
	units, err = ms.StockUnits().ReservedBy(context.Background(), itemID)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	require.NoError(t, svc.Release(context.Background(), itemID))
	units, err = ms.StockUnits().ReservedBy(context.Background(), itemID)
	require.NoError(t, err)
	assert.Empty(t, units)

	// Releasing with nothing held is a no-op.
	require.NoError(t, svc.Release(context.Background(), itemID))
}

func TestReserveShortfall(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 3)
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, SkuID: u64p(skuID), QtyDesired: 5})

	err := newStock(ms).Reserve(context.Background(), itemID, 5)
	assert.ErrorIs(t, err, ErrInsufficientUnits)
}
