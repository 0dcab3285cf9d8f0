package service

import (
	"context"
	"testing"
	"time"

	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	june1 = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	july1 = time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
)

func seedStockSetup(ms *memstore.Memstore, units int) (productID, skuID uint64) {
	projectID := ms.AddProject(model.Project{Status: model.ProjectAvailable})
	productID = ms.AddProduct(model.Product{
		ProjectID: projectID,
		Name:      "enamel pin",
		Price:     decimal.NewFromInt(10),
		InStock:   true,
	})
	skuID = ms.AddSku(model.Sku{ProductID: productID, Code: "PIN-1"})
	for i := 0; i < units; i++ {
		ms.AddUnit(model.StockUnit{SkuID: skuID})
	}
	return productID, skuID
}

func TestRefreshStockShortfall(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 3)
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, SkuID: u64p(skuID), QtyDesired: 5})

	satisfied, err := newReservations(ms).Refresh(context.Background(), itemID)
	require.NoError(t, err)
	assert.False(t, satisfied)

	item, ok := ms.Item(itemID)
	require.True(t, ok)
	assert.Equal(t, 3, item.QtyDesired)
	assert.Equal(t, model.StageStock, item.Stage)
	assert.Nil(t, item.BatchID)
	require.NotNil(t, item.ExpectedShipAt)
	assert.Equal(t, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC), *item.ExpectedShipAt)

	reserved := 0
	for id := uint64(1); id <= 20; id++ {
		if u, ok := ms.Unit(id); ok && u.Reserved() {
			assert.Equal(t, itemID, *u.CartLineItemID)
			reserved++
		}
	}
	assert.Equal(t, 3, reserved)
}

func TestRefreshStockExhausted(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 0)
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, SkuID: u64p(skuID), QtyDesired: 1})

	_, err := newReservations(ms).Refresh(context.Background(), itemID)
	assert.ErrorIs(t, err, ErrStockExhausted)
}

func TestRefreshStockWithoutSku(t *testing.T) {
	ms := memstore.New()
	productID, _ := seedStockSetup(ms, 3)
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 1})

	_, err := newReservations(ms).Refresh(context.Background(), itemID)
	assert.ErrorIs(t, err, ErrStockExhausted)
}

func TestRefreshMissingItem(t *testing.T) {
	ms := memstore.New()
	_, err := newReservations(ms).Refresh(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshCrowdfundingExactFit(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectCrowdfunding})
	productID := ms.AddProduct(model.Product{
		ProjectID: projectID,
		Price:     decimal.NewFromInt(25),
		Batches:   []model.Batch{{Qty: intp(10), ShipAt: june1}},
	})

	svc := newReservations(ms)

	first := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 10})
	satisfied, err := svc.Refresh(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, satisfied, "a claim for the whole batch must fit")

	item, _ := ms.Item(first)
	assert.Equal(t, model.StageCrowdfunding, item.Stage)
	require.NotNil(t, item.BatchID)
	require.NotNil(t, item.ExpectedShipAt)
	assert.Equal(t, june1, *item.ExpectedShipAt)

	claimed, err := ms.Batches().QtyClaimed(context.Background(), *item.BatchID, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, claimed)

	// The pool is drained; a second claim collapses to zero.
	second := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 1})
	satisfied, err = svc.Refresh(context.Background(), second)
	require.NoError(t, err)
	assert.False(t, satisfied)
	item, _ = ms.Item(second)
	assert.Equal(t, 0, item.QtyDesired)
	assert.NotNil(t, item.BatchID)
}

func TestRefreshCrowdfundingSpillsToLaterBatch(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectCrowdfunding})
	productID := ms.AddProduct(model.Product{
		ProjectID: projectID,
		Price:     decimal.NewFromInt(25),
		Batches: []model.Batch{
			{Qty: intp(5), ShipAt: june1},
			{Qty: intp(5), ShipAt: july1},
		},
	})

	svc := newReservations(ms)

	first := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 4})
	_, err := svc.Refresh(context.Background(), first)
	require.NoError(t, err)
	item, _ := ms.Item(first)
	require.NotNil(t, item.ExpectedShipAt)
	assert.Equal(t, june1, *item.ExpectedShipAt)

	// 4 of 5 first-batch units are spoken for; 3 more only fit in July.
	second := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 3})
	satisfied, err := svc.Refresh(context.Background(), second)
	require.NoError(t, err)
	assert.True(t, satisfied)
	item, _ = ms.Item(second)
	require.NotNil(t, item.ExpectedShipAt)
	assert.Equal(t, july1, *item.ExpectedShipAt)
}

func TestRefreshReusesBatchFreedByCancellation(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectCrowdfunding})
	productID := ms.AddProduct(model.Product{
		ProjectID: projectID,
		Price:     decimal.NewFromInt(25),
		Batches: []model.Batch{
			{Qty: intp(5), ShipAt: june1},
			{Qty: intp(5), ShipAt: july1},
		},
	})

	svc := newReservations(ms)

	first := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 5})
	_, err := svc.Refresh(context.Background(), first)
	require.NoError(t, err)
	second := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 5})
	_, err = svc.Refresh(context.Background(), second)
	require.NoError(t, err)

	require.NoError(t, NewLifecycleService(ms).UpdateStatus(context.Background(), first, model.StatusCancelled))

	// The freed June batch must take the new claim; stacking it on the
	// July batch would put 10 claims on a batch of 5.
	third := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 5})
	satisfied, err := svc.Refresh(context.Background(), third)
	require.NoError(t, err)
	assert.True(t, satisfied)

	item, _ := ms.Item(third)
	require.NotNil(t, item.ExpectedShipAt)
	assert.Equal(t, june1, *item.ExpectedShipAt)

	secondItem, _ := ms.Item(second)
	require.NotNil(t, secondItem.BatchID)
	claimed, err := ms.Batches().QtyClaimed(context.Background(), *secondItem.BatchID, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, claimed, "the later batch must not take more than its size")
}

func TestRefreshCrowdfundingUnboundedTailBatch(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectCrowdfunding})
	productID := ms.AddProduct(model.Product{
		ProjectID: projectID,
		Price:     decimal.NewFromInt(25),
		Batches: []model.Batch{
			{Qty: intp(2), ShipAt: june1},
			{Qty: nil, ShipAt: july1},
		},
	})
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 100})

	satisfied, err := newReservations(ms).Refresh(context.Background(), itemID)
	require.NoError(t, err)
	assert.True(t, satisfied, "an unbounded batch absorbs any quantity")

	item, _ := ms.Item(itemID)
	assert.Equal(t, 100, item.QtyDesired)
	require.NotNil(t, item.ExpectedShipAt)
	assert.Equal(t, july1, *item.ExpectedShipAt)
}

func TestRefreshCrowdfundingNoBatches(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectCrowdfunding})
	productID := ms.AddProduct(model.Product{ProjectID: projectID, Price: decimal.NewFromInt(25)})
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 1})

	_, err := newReservations(ms).Refresh(context.Background(), itemID)
	assert.ErrorIs(t, err, ErrNoBatches)
}

func TestRefreshCancelledClaimsDoNotCount(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectCrowdfunding})
	productID := ms.AddProduct(model.Product{
		ProjectID: projectID,
		Price:     decimal.NewFromInt(25),
		Batches:   []model.Batch{{Qty: intp(5), ShipAt: june1}},
	})
	seedCartItem(ms, model.CartLineItem{
		ProductID: productID, QtyDesired: 5,
		Stage: model.StageCrowdfunding, Status: model.StatusCancelled,
	})
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 5})

	satisfied, err := newReservations(ms).Refresh(context.Background(), itemID)
	require.NoError(t, err)
	assert.True(t, satisfied, "cancelled claims must return capacity to the pool")
}

func TestRefreshNonPhysical(t *testing.T) {
	tests := []struct {
		name          string
		projectStatus model.ProjectStatus
		wantStage     model.Stage
	}{
		{"during campaign", model.ProjectCrowdfunding, model.StageCrowdfunding},
		{"after campaign", model.ProjectAvailable, model.StageStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := memstore.New()
			projectID := ms.AddProject(model.Project{Status: tt.projectStatus})
			productID := ms.AddProduct(model.Product{
				ProjectID:   projectID,
				Price:       decimal.NewFromInt(5),
				NonPhysical: true,
			})
			itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 3})

			satisfied, err := newReservations(ms).Refresh(context.Background(), itemID)
			require.NoError(t, err)
			assert.True(t, satisfied, "digital goods have no capacity limit")

			item, _ := ms.Item(itemID)
			assert.Equal(t, tt.wantStage, item.Stage)
			assert.Equal(t, 3, item.QtyDesired)
			assert.Nil(t, item.BatchID)
			assert.Nil(t, item.ExpectedShipAt)
		})
	}
}

func TestRefreshPreorderGate(t *testing.T) {
	tests := []struct {
		name           string
		projectAccepts bool
		productAccepts bool
	}{
		{"project opted out", false, true},
		{"product opted out", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := memstore.New()
			projectID := ms.AddProject(model.Project{Status: model.ProjectAvailable, AcceptsPreorders: tt.projectAccepts})
			productID := ms.AddProduct(model.Product{
				ProjectID:        projectID,
				Price:            decimal.NewFromInt(25),
				AcceptsPreorders: tt.productAccepts,
				Batches:          []model.Batch{{Qty: intp(10), ShipAt: june1}},
			})
			itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 2})

			satisfied, err := newReservations(ms).Refresh(context.Background(), itemID)
			require.NoError(t, err)
			assert.False(t, satisfied)

			item, _ := ms.Item(itemID)
			assert.Equal(t, model.StagePreorder, item.Stage)
			assert.Equal(t, 0, item.QtyDesired)
			assert.Nil(t, item.BatchID)
		})
	}
}

func TestRefreshPreorderSharesBatchPool(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectAvailable, AcceptsPreorders: true})
	productID := ms.AddProduct(model.Product{
		ProjectID:        projectID,
		Price:            decimal.NewFromInt(25),
		AcceptsPreorders: true,
		Batches:          []model.Batch{{Qty: intp(10), ShipAt: june1}},
	})
	// A surviving campaign claim keeps 8 units of the batch.
	seedCartItem(ms, model.CartLineItem{
		ProductID: productID, QtyDesired: 8,
		Stage: model.StageCrowdfunding, Status: model.StatusUnfunded,
	})
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, QtyDesired: 5})

	satisfied, err := newReservations(ms).Refresh(context.Background(), itemID)
	require.NoError(t, err)
	assert.False(t, satisfied)

	item, _ := ms.Item(itemID)
	assert.Equal(t, model.StagePreorder, item.Stage)
	assert.Equal(t, 2, item.QtyDesired)
	require.NotNil(t, item.BatchID)
}

func TestRefreshRepricesFromSku(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectAvailable})
	productID := ms.AddProduct(model.Product{
		ProjectID: projectID,
		Price:     decimal.RequireFromString("10.00"),
		InStock:   true,
	})
	skuID := ms.AddSku(model.Sku{
		ProductID: productID,
		Code:      "PIN-XL",
		OptionValues: []model.OptionValue{
			{Name: "size XL", Surcharge: decimal.RequireFromString("2.50")},
		},
	})
	ms.AddUnit(model.StockUnit{SkuID: skuID})
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, SkuID: u64p(skuID), QtyDesired: 1})

	_, err := newReservations(ms).Refresh(context.Background(), itemID)
	require.NoError(t, err)

	item, _ := ms.Item(itemID)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("12.50")), "price was %s", item.Price)
}

func TestRefreshStageFlipReleasesStock(t *testing.T) {
	ms := memstore.New()
	projectID := ms.AddProject(model.Project{Status: model.ProjectAvailable})
	productID := ms.AddProduct(model.Product{
		ProjectID: projectID,
		Price:     decimal.NewFromInt(25),
		InStock:   true,
		Batches:   []model.Batch{{Qty: intp(10), ShipAt: june1}},
	})
	skuID := ms.AddSku(model.Sku{ProductID: productID, Code: "PIN-2"})
	itemID := seedCartItem(ms, model.CartLineItem{
		ProductID: productID, SkuID: u64p(skuID), QtyDesired: 2, Stage: model.StageStock,
	})
	unitA := ms.AddUnit(model.StockUnit{SkuID: skuID, CartLineItemID: u64p(itemID)})
	unitB := ms.AddUnit(model.StockUnit{SkuID: skuID, CartLineItemID: u64p(itemID)})

	// Campaign relaunch: the project flips back to crowdfunding.
	ms.AddProject(model.Project{ID: projectID, Status: model.ProjectCrowdfunding})

	satisfied, err := newReservations(ms).Refresh(context.Background(), itemID)
	require.NoError(t, err)
	assert.True(t, satisfied)

	item, _ := ms.Item(itemID)
	assert.Equal(t, model.StageCrowdfunding, item.Stage)
	require.NotNil(t, item.BatchID)

	for _, id := range []uint64{unitA, unitB} {
		u, _ := ms.Unit(id)
		assert.False(t, u.Reserved(), "unit %d must be released on stage flip", id)
	}
}

func TestRefreshIdempotent(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 5)
	itemID := seedCartItem(ms, model.CartLineItem{ProductID: productID, SkuID: u64p(skuID), QtyDesired: 2})

	svc := newReservations(ms)
	for i := 0; i < 2; i++ {
		satisfied, err := svc.Refresh(context.Background(), itemID)
		require.NoError(t, err)
		assert.True(t, satisfied)
	}

	item, _ := ms.Item(itemID)
	assert.Equal(t, 2, item.QtyDesired)
	units, err := ms.StockUnits().ReservedBy(context.Background(), itemID)
	require.NoError(t, err)
	assert.Len(t, units, 2, "re-running a refresh must not accumulate units")
}

func TestExpire(t *testing.T) {
	ms := memstore.New()
	productID, skuID := seedStockSetup(ms, 2)
	itemID := seedCartItem(ms, model.CartLineItem{
		ProductID: productID, SkuID: u64p(skuID), QtyDesired: 2, Stage: model.StageStock,
		ExpectedShipAt: &june1,
	})
	unitID := ms.AddUnit(model.StockUnit{SkuID: skuID, CartLineItemID: u64p(itemID)})

	require.NoError(t, newReservations(ms).Expire(context.Background(), itemID))

	item, _ := ms.Item(itemID)
	assert.Equal(t, model.StageInactive, item.Stage)
	assert.Nil(t, item.BatchID)
	assert.Nil(t, item.ExpectedShipAt)
	u, _ := ms.Unit(unitID)
	assert.False(t, u.Reserved())
}

func TestNextShippingDay(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"midweek ships next day",
			time.Date(2026, time.March, 4, 15, 30, 0, 0, time.UTC), // Wednesday
			time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			"friday skips the weekend",
			time.Date(2026, time.March, 6, 9, 0, 0, 0, time.UTC), // Friday
			time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			"saturday waits for monday",
			time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextShippingDay(tt.now))
		})
	}
}
