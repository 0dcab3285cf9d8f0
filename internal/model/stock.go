package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockAdjustment records who changed a SKU's unit count and why. Positive
// diffs create units tagged to the adjustment; negative diffs destroy the
// oldest live units.
type StockAdjustment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	SkuID     uint64    `gorm:"index;not null"`
	QtyDiff   int       `gorm:"not null"`
	Reason    string    `gorm:"size:255;not null"`
	Actor     string    `gorm:"size:128;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}

// StockUnit is one discrete physical unit of a SKU. Destruction is a soft
// delete via DestroyedAt; a live unit with no line-item link is available.
type StockUnit struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement"`
	SkuID          uint64          `gorm:"index;not null"`
	AdjustmentID   *uint64         `gorm:"index"`
	CartLineItemID *uint64         `gorm:"index"`
	Cost           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	DestroyedAt    *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (StockUnit) TableName() string {
	return "stock_units"
}

func (u *StockUnit) Live() bool {
	return u.DestroyedAt == nil
}

func (u *StockUnit) Reserved() bool {
	return u.CartLineItemID != nil
}
