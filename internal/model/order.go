package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order owns exactly one cart, created at checkout. Closed is derived from
// aggregate item status and settled amounts; it is persisted so reports can
// filter on it, and recomputed after every settlement operation.
type Order struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CartID    uint64 `gorm:"uniqueIndex;not null"`
	Cart      Cart   `gorm:"foreignKey:CartID"`
	Closed    bool   `gorm:"not null;default:false"`
	Payments  []Payment      `gorm:"foreignKey:OrderID"`
	Shipments []Shipment     `gorm:"foreignKey:OrderID"`
	Comments  []OrderComment `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// TotalAmount sums line totals over items that count toward the order.
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Cart.Items {
		if o.Cart.Items[i].Status.IncludeInTotal() {
			total = total.Add(o.Cart.Items[i].Amount())
		}
	}
	return total
}

// PaidAmount sums recorded payments.
func (o *Order) PaidAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Payments {
		total = total.Add(o.Payments[i].Amount)
	}
	return total
}

// DueAmount sums line totals over counted items whose status either has
// payment due now or has already passed the point of obligation (final,
// e.g. shipped).
func (o *Order) DueAmount() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Cart.Items {
		item := &o.Cart.Items[i]
		if !item.Status.IncludeInTotal() {
			continue
		}
		if item.Status.PaymentDue() || item.Status.Final() {
			total = total.Add(item.Amount())
		}
	}
	return total
}

// ComputeClosed: every item in a final status, nothing left unpaid, and
// nothing still pending on non-final items.
func (o *Order) ComputeClosed() bool {
	for i := range o.Cart.Items {
		if !o.Cart.Items[i].Status.Final() {
			return false
		}
	}
	total := o.TotalAmount()
	return o.PaidAmount().Equal(total) && o.DueAmount().Equal(total)
}

type Payment struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID       uint64          `gorm:"index;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TransactionID string          `gorm:"size:64;not null"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
}

func (Payment) TableName() string {
	return "payments"
}

type Shipment struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID          uint64          `gorm:"index;not null"`
	Tracking         string          `gorm:"size:128"`
	Cost             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	ShippedByCreator bool            `gorm:"not null;default:false"`
	ShippedAt        time.Time       `gorm:"not null"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
}

func (Shipment) TableName() string {
	return "shipments"
}

type OrderComment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID   uint64    `gorm:"index;not null"`
	Actor     string    `gorm:"size:128;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (OrderComment) TableName() string {
	return "order_comments"
}
