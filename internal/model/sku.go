package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sku struct {
	ID           uint64        `gorm:"primaryKey;autoIncrement"`
	ProductID    uint64        `gorm:"index;not null"`
	Code         string        `gorm:"size:64;uniqueIndex;not null"`
	OptionValues []OptionValue `gorm:"many2many:sku_option_values"`
	CreatedAt    time.Time     `gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime"`
}

func (Sku) TableName() string {
	return "skus"
}

// Surcharge sums the option-value surcharges on top of the product base price.
func (s *Sku) Surcharge() decimal.Decimal {
	total := decimal.Zero
	for _, ov := range s.OptionValues {
		total = total.Add(ov.Surcharge)
	}
	return total
}

type OptionValue struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	Name      string          `gorm:"size:120;not null"`
	Surcharge decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (OptionValue) TableName() string {
	return "option_values"
}
