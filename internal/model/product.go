package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrBatchShipOrder = errors.New("batches must have strictly increasing ship times")
	ErrUnboundedBatch = errors.New("only the last batch may be unbounded")
)

type Product struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement"`
	ProjectID        uint64          `gorm:"index;not null"`
	Project          Project         `gorm:"foreignKey:ProjectID"`
	Name             string          `gorm:"size:120;not null"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	NonPhysical      bool            `gorm:"not null;default:false"`
	InStock          bool            `gorm:"not null;default:false"`
	AcceptsPreorders bool            `gorm:"not null;default:false"`
	Batches          []Batch         `gorm:"foreignKey:ProductID"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// ValidateBatches checks the production schedule: ship times strictly
// increasing, and an unbounded run only ever last.
func (p *Product) ValidateBatches() error {
	for i := range p.Batches {
		if i > 0 && !p.Batches[i].ShipAt.After(p.Batches[i-1].ShipAt) {
			return ErrBatchShipOrder
		}
		if p.Batches[i].Qty == nil && i != len(p.Batches)-1 {
			return ErrUnboundedBatch
		}
	}
	return nil
}

func (p *Product) BeforeSave(*gorm.DB) error {
	return p.ValidateBatches()
}

type Batch struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ProductID uint64    `gorm:"index;not null"`
	Qty       *int      `gorm:"column:qty"` // nil means unbounded
	ShipAt    time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Batch) TableName() string {
	return "batches"
}

func (b *Batch) Unbounded() bool {
	return b.Qty == nil
}
