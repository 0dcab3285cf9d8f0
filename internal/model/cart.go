package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stage names the capacity pool a line item draws from.
type Stage string

const (
	StageCrowdfunding Stage = "crowdfunding"
	StagePreorder     Stage = "preorder"
	StageStock        Stage = "stock"
	StageInactive     Stage = "inactive"
)

// Cart is an ordered collection of line items. Pre-checkout carts belong to
// nobody and are expired by the sweeper; at checkout a cart is bound 1:1 to
// an order. UpdatedAt is the staleness clock.
type Cart struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	Items     []CartLineItem `gorm:"foreignKey:CartID"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartLineItem struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement"`
	CartID         uint64          `gorm:"index;not null"`
	ProductID      uint64          `gorm:"index;not null"`
	Product        Product         `gorm:"foreignKey:ProductID"`
	SkuID          *uint64         `gorm:"index"`
	Sku            *Sku            `gorm:"foreignKey:SkuID"`
	QtyDesired     int             `gorm:"not null"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ShippingPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Stage          Stage           `gorm:"size:16;not null;default:inactive"`
	BatchID        *uint64         `gorm:"index"`
	ExpectedShipAt *time.Time
	ShippedAt      *time.Time
	ShipmentID     *uint64 `gorm:"index"`
	Status         Status  `gorm:"size:32;not null;default:cart"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (CartLineItem) TableName() string {
	return "cart_line_items"
}

// Amount is the line total: unit price times quantity, plus shipping.
func (i *CartLineItem) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.QtyDesired))).Add(i.ShippingPrice)
}

// Active reports whether the item still holds a claim against batch or
// stock capacity.
func (i *CartLineItem) Active() bool {
	return i.Status != StatusCancelled && i.Status != StatusAbandoned
}
