// Package memstore is an in-memory repository.Store used by tests. One
// mutex is held for the whole of every InTx call, so transactions are
// serializable; failed transactions are not rolled back, which tests must
// not rely on.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/repository"
	"gorm.io/gorm"
)

type Memstore struct {
	mu   sync.Mutex
	inTx bool
	seq  uint64

	projects    map[uint64]model.Project
	products    map[uint64]model.Product
	batches     map[uint64]model.Batch
	skus        map[uint64]model.Sku
	units       map[uint64]model.StockUnit
	adjustments map[uint64]model.StockAdjustment
	carts       map[uint64]model.Cart
	items       map[uint64]model.CartLineItem
	orders      map[uint64]model.Order
	payments    map[uint64]model.Payment
	shipments   map[uint64]model.Shipment
	comments    map[uint64]model.OrderComment
}

func New() *Memstore {
	return &Memstore{
		projects:    map[uint64]model.Project{},
		products:    map[uint64]model.Product{},
		batches:     map[uint64]model.Batch{},
		skus:        map[uint64]model.Sku{},
		units:       map[uint64]model.StockUnit{},
		adjustments: map[uint64]model.StockAdjustment{},
		carts:       map[uint64]model.Cart{},
		items:       map[uint64]model.CartLineItem{},
		orders:      map[uint64]model.Order{},
		payments:    map[uint64]model.Payment{},
		shipments:   map[uint64]model.Shipment{},
		comments:    map[uint64]model.OrderComment{},
	}
}

func (m *Memstore) nextID() uint64 {
	m.seq++
	return m.seq
}

func (m *Memstore) InTx(_ context.Context, fn func(tx repository.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTx = true
	defer func() { m.inTx = false }()
	return fn(m)
}

// lock guards direct repository calls made outside InTx (tests seeding or
// asserting state). Inside a transaction the mutex is already held.
func (m *Memstore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *Memstore) Projects() repository.ProjectRepository     { return memProjects{m} }
func (m *Memstore) Products() repository.ProductRepository     { return memProducts{m} }
func (m *Memstore) Batches() repository.BatchRepository        { return memBatches{m} }
func (m *Memstore) StockUnits() repository.StockUnitRepository { return memUnits{m} }
func (m *Memstore) Carts() repository.CartRepository           { return memCarts{m} }
func (m *Memstore) Orders() repository.OrderRepository         { return memOrders{m} }

// ---- seeding helpers -------------------------------------------------------

func (m *Memstore) AddProject(p model.Project) uint64 {
	defer m.lock()()
	if p.ID == 0 {
		p.ID = m.nextID()
	}
	m.projects[p.ID] = p
	return p.ID
}

func (m *Memstore) AddProduct(p model.Product) uint64 {
	defer m.lock()()
	if p.ID == 0 {
		p.ID = m.nextID()
	}
	batches := p.Batches
	p.Batches = nil
	m.products[p.ID] = p
	for _, b := range batches {
		b.ProductID = p.ID
		if b.ID == 0 {
			b.ID = m.nextID()
		}
		m.batches[b.ID] = b
	}
	return p.ID
}

func (m *Memstore) AddBatch(b model.Batch) uint64 {
	defer m.lock()()
	if b.ID == 0 {
		b.ID = m.nextID()
	}
	m.batches[b.ID] = b
	return b.ID
}

func (m *Memstore) AddSku(s model.Sku) uint64 {
	defer m.lock()()
	if s.ID == 0 {
		s.ID = m.nextID()
	}
	m.skus[s.ID] = s
	return s.ID
}

func (m *Memstore) AddUnit(u model.StockUnit) uint64 {
	defer m.lock()()
	if u.ID == 0 {
		u.ID = m.nextID()
	}
	m.units[u.ID] = u
	return u.ID
}

func (m *Memstore) AddCart(c model.Cart) uint64 {
	defer m.lock()()
	if c.ID == 0 {
		c.ID = m.nextID()
	}
	items := c.Items
	c.Items = nil
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	m.carts[c.ID] = c
	for _, it := range items {
		it.CartID = c.ID
		if it.ID == 0 {
			it.ID = m.nextID()
		}
		m.items[it.ID] = it
	}
	return c.ID
}

func (m *Memstore) AddItem(it model.CartLineItem) uint64 {
	defer m.lock()()
	if it.ID == 0 {
		it.ID = m.nextID()
	}
	m.items[it.ID] = it
	return it.ID
}

func (m *Memstore) AddOrder(o model.Order) uint64 {
	defer m.lock()()
	if o.ID == 0 {
		o.ID = m.nextID()
	}
	o.Cart = model.Cart{}
	o.Payments, o.Shipments, o.Comments = nil, nil, nil
	m.orders[o.ID] = o
	return o.ID
}

// Unit returns a copy of a stock unit for assertions.
func (m *Memstore) Unit(id uint64) (model.StockUnit, bool) {
	defer m.lock()()
	u, ok := m.units[id]
	return u, ok
}

// Item returns a copy of a line item for assertions.
func (m *Memstore) Item(id uint64) (model.CartLineItem, bool) {
	defer m.lock()()
	it, ok := m.items[id]
	return it, ok
}

// ---- internal lookups ------------------------------------------------------

func (m *Memstore) productBatches(productID uint64) []model.Batch {
	var out []model.Batch
	for _, b := range m.batches {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ShipAt.Equal(out[j].ShipAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ShipAt.Before(out[j].ShipAt)
	})
	return out
}

func (m *Memstore) loadProduct(id uint64) (model.Product, bool) {
	p, ok := m.products[id]
	if !ok {
		return p, false
	}
	p.Project = m.projects[p.ProjectID]
	p.Batches = m.productBatches(p.ID)
	return p, true
}

// unitShipped reports whether the unit's reserving item already shipped.
func (m *Memstore) unitShipped(u model.StockUnit) bool {
	if u.CartLineItemID == nil {
		return false
	}
	it, ok := m.items[*u.CartLineItemID]
	return ok && it.ShippedAt != nil
}

func (m *Memstore) skuUnitsOrdered(skuID uint64) []model.StockUnit {
	var out []model.StockUnit
	for _, u := range m.units {
		if u.SkuID == skuID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memstore) cartItems(cartID uint64) []model.CartLineItem {
	var out []model.CartLineItem
	for _, it := range m.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func notFound() error {
	return gorm.ErrRecordNotFound
}
