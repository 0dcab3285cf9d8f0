package service

import (
	"time"

	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository/memstore"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// testNow is a Wednesday so next-day shipping math stays on weekdays unless
// a test pins its own clock.
var testNow = time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

func intp(n int) *int       { return &n }
func u64p(n uint64) *uint64 { return &n }

// decimal25 is the flat unit price most fixtures use.
func decimal25() decimal.Decimal { return decimal.NewFromInt(25) }

func newReservations(ms *memstore.Memstore) ReservationService {
	return NewReservationService(ms, clock.Fixed{T: testNow}, zerolog.Nop())
}

// seedCartItem stores a line item, creating a cart for it when none is given.
func seedCartItem(ms *memstore.Memstore, it model.CartLineItem) uint64 {
	if it.CartID == 0 {
		it.CartID = ms.AddCart(model.Cart{})
	}
	if it.Status == "" {
		it.Status = model.StatusCart
	}
	if it.Stage == "" {
		it.Stage = model.StageInactive
	}
	return ms.AddItem(it)
}
