package memstore

import (
	"context"
	"time"

	"github.com/makerloop/commerce-backend/internal/model"
)

type memProjects struct{ m *Memstore }

func (r memProjects) FindByID(_ context.Context, id uint64) (*model.Project, error) {
	defer r.m.lock()()
	p, ok := r.m.projects[id]
	if !ok {
		return nil, notFound()
	}
	return &p, nil
}

func (r memProjects) Save(_ context.Context, p *model.Project) error {
	defer r.m.lock()()
	r.m.projects[p.ID] = *p
	return nil
}

type memProducts struct{ m *Memstore }

func (r memProducts) FindByID(_ context.Context, id uint64) (*model.Product, error) {
	defer r.m.lock()()
	p, ok := r.m.loadProduct(id)
	if !ok {
		return nil, notFound()
	}
	return &p, nil
}

func (r memProducts) FindSku(_ context.Context, id uint64) (*model.Sku, error) {
	defer r.m.lock()()
	s, ok := r.m.skus[id]
	if !ok {
		return nil, notFound()
	}
	return &s, nil
}

func (r memProducts) Save(_ context.Context, p *model.Product) error {
	defer r.m.lock()()
	cp := *p
	cp.Batches = nil
	r.m.products[p.ID] = cp
	return nil
}

type memBatches struct{ m *Memstore }

func (r memBatches) LockForProduct(_ context.Context, productID uint64) ([]model.Batch, error) {
	defer r.m.lock()()
	return r.m.productBatches(productID), nil
}

func (r memBatches) QtyClaimed(_ context.Context, batchID, excludeItemID uint64) (int, error) {
	defer r.m.lock()()
	claimed := 0
	for _, it := range r.m.items {
		if it.BatchID != nil && *it.BatchID == batchID && it.ID != excludeItemID && it.Active() {
			claimed += it.QtyDesired
		}
	}
	return claimed, nil
}

type memUnits struct{ m *Memstore }

func (r memUnits) LockAvailable(_ context.Context, skuID, lineItemID uint64, limit int) ([]model.StockUnit, error) {
	defer r.m.lock()()
	var out []model.StockUnit
	for _, u := range r.m.skuUnitsOrdered(skuID) {
		if len(out) == limit {
			break
		}
		if !u.Live() || r.m.unitShipped(u) {
			continue
		}
		if u.CartLineItemID != nil && *u.CartLineItemID != lineItemID {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r memUnits) LockLiveOldest(_ context.Context, skuID uint64, limit int) ([]model.StockUnit, error) {
	defer r.m.lock()()
	var out []model.StockUnit
	for _, u := range r.m.skuUnitsOrdered(skuID) {
		if len(out) == limit {
			break
		}
		if !u.Live() || r.m.unitShipped(u) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r memUnits) Assign(_ context.Context, unitIDs []uint64, lineItemID uint64) error {
	defer r.m.lock()()
	for _, id := range unitIDs {
		u, ok := r.m.units[id]
		if !ok {
			return notFound()
		}
		u.CartLineItemID = &lineItemID
		r.m.units[id] = u
	}
	return nil
}

func (r memUnits) Release(_ context.Context, lineItemID uint64) error {
	defer r.m.lock()()
	for id, u := range r.m.units {
		if u.CartLineItemID != nil && *u.CartLineItemID == lineItemID {
			u.CartLineItemID = nil
			r.m.units[id] = u
		}
	}
	return nil
}

func (r memUnits) ReservedBy(_ context.Context, lineItemID uint64) ([]model.StockUnit, error) {
	defer r.m.lock()()
	var out []model.StockUnit
	for _, u := range r.m.units {
		if u.CartLineItemID != nil && *u.CartLineItemID == lineItemID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memUnits) Destroy(_ context.Context, unitIDs []uint64, at time.Time) error {
	defer r.m.lock()()
	for _, id := range unitIDs {
		u, ok := r.m.units[id]
		if !ok {
			return notFound()
		}
		t := at
		u.DestroyedAt = &t
		r.m.units[id] = u
	}
	return nil
}

func (r memUnits) CreateAdjustment(_ context.Context, adj *model.StockAdjustment) error {
	defer r.m.lock()()
	if adj.ID == 0 {
		adj.ID = r.m.nextID()
	}
	r.m.adjustments[adj.ID] = *adj
	return nil
}

func (r memUnits) CreateUnits(_ context.Context, skuID, adjustmentID uint64, count int) error {
	defer r.m.lock()()
	for i := 0; i < count; i++ {
		id := r.m.nextID()
		adjID := adjustmentID
		r.m.units[id] = model.StockUnit{ID: id, SkuID: skuID, AdjustmentID: &adjID}
	}
	return nil
}

func (r memUnits) CountLive(_ context.Context, skuID uint64) (int, error) {
	defer r.m.lock()()
	n := 0
	for _, u := range r.m.units {
		if u.SkuID == skuID && u.Live() && !r.m.unitShipped(u) {
			n++
		}
	}
	return n, nil
}

func (r memUnits) CountAvailable(_ context.Context, skuID uint64) (int, error) {
	defer r.m.lock()()
	n := 0
	for _, u := range r.m.units {
		if u.SkuID == skuID && u.Live() && u.CartLineItemID == nil {
			n++
		}
	}
	return n, nil
}

type memCarts struct{ m *Memstore }

func (r memCarts) Create(_ context.Context, cart *model.Cart) error {
	defer r.m.lock()()
	if cart.ID == 0 {
		cart.ID = r.m.nextID()
	}
	cart.UpdatedAt = time.Now().UTC()
	cp := *cart
	cp.Items = nil
	r.m.carts[cart.ID] = cp
	return nil
}

func (r memCarts) FindByID(_ context.Context, id uint64) (*model.Cart, error) {
	defer r.m.lock()()
	c, ok := r.m.carts[id]
	if !ok {
		return nil, notFound()
	}
	c.Items = r.m.cartItems(id)
	for i := range c.Items {
		if p, ok := r.m.loadProduct(c.Items[i].ProductID); ok {
			c.Items[i].Product = p
		}
	}
	return &c, nil
}

func (r memCarts) Touch(_ context.Context, cartID uint64, at time.Time) error {
	defer r.m.lock()()
	c, ok := r.m.carts[cartID]
	if !ok {
		return notFound()
	}
	c.UpdatedAt = at
	r.m.carts[cartID] = c
	return nil
}

func (r memCarts) FindItem(_ context.Context, id uint64) (*model.CartLineItem, error) {
	defer r.m.lock()()
	it, ok := r.m.items[id]
	if !ok {
		return nil, notFound()
	}
	if p, ok := r.m.loadProduct(it.ProductID); ok {
		it.Product = p
	}
	if it.SkuID != nil {
		if s, ok := r.m.skus[*it.SkuID]; ok {
			it.Sku = &s
		}
	}
	return &it, nil
}

func (r memCarts) CreateItem(_ context.Context, item *model.CartLineItem) error {
	defer r.m.lock()()
	if item.ID == 0 {
		item.ID = r.m.nextID()
	}
	cp := *item
	cp.Product = model.Product{}
	cp.Sku = nil
	r.m.items[item.ID] = cp
	return nil
}

func (r memCarts) SaveItem(_ context.Context, item *model.CartLineItem) error {
	defer r.m.lock()()
	cp := *item
	cp.Product = model.Product{}
	cp.Sku = nil
	r.m.items[item.ID] = cp
	return nil
}

func (r memCarts) ClaimedQty(_ context.Context, productID uint64, stages []model.Stage, excludeItemID uint64) (int, error) {
	defer r.m.lock()()
	claimed := 0
	for _, it := range r.m.items {
		if it.ProductID != productID || it.ID == excludeItemID || !it.Active() {
			continue
		}
		for _, st := range stages {
			if it.Stage == st {
				claimed += it.QtyDesired
				break
			}
		}
	}
	return claimed, nil
}

func (r memCarts) FindStale(_ context.Context, cutoff time.Time) ([]model.Cart, error) {
	defer r.m.lock()()
	ordered := map[uint64]bool{}
	for _, o := range r.m.orders {
		ordered[o.CartID] = true
	}
	var out []model.Cart
	for id, c := range r.m.carts {
		if ordered[id] || !c.UpdatedAt.Before(cutoff) {
			continue
		}
		items := r.m.cartItems(id)
		if len(items) == 0 {
			continue
		}
		all := true
		for _, it := range items {
			if it.Status != model.StatusCart {
				all = false
				break
			}
		}
		if all {
			c.Items = items
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCarts) ItemsByProjectStatus(_ context.Context, projectID uint64, status model.Status) ([]model.CartLineItem, error) {
	defer r.m.lock()()
	var out []model.CartLineItem
	for _, it := range r.m.items {
		p, ok := r.m.loadProduct(it.ProductID)
		if !ok || p.ProjectID != projectID || it.Status != status {
			continue
		}
		it.Product = p
		out = append(out, it)
	}
	return out, nil
}

type memOrders struct{ m *Memstore }

func (r memOrders) Create(_ context.Context, o *model.Order) error {
	defer r.m.lock()()
	if o.ID == 0 {
		o.ID = r.m.nextID()
	}
	cp := *o
	cp.Cart = model.Cart{}
	cp.Payments, cp.Shipments, cp.Comments = nil, nil, nil
	r.m.orders[o.ID] = cp
	return nil
}

func (r memOrders) load(o model.Order) model.Order {
	c := r.m.carts[o.CartID]
	c.Items = r.m.cartItems(o.CartID)
	for i := range c.Items {
		if p, ok := r.m.loadProduct(c.Items[i].ProductID); ok {
			c.Items[i].Product = p
		}
	}
	o.Cart = c
	for _, p := range r.m.payments {
		if p.OrderID == o.ID {
			o.Payments = append(o.Payments, p)
		}
	}
	for _, s := range r.m.shipments {
		if s.OrderID == o.ID {
			o.Shipments = append(o.Shipments, s)
		}
	}
	return o
}

func (r memOrders) FindByID(_ context.Context, id uint64) (*model.Order, error) {
	defer r.m.lock()()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, notFound()
	}
	o = r.load(o)
	return &o, nil
}

func (r memOrders) FindByCart(_ context.Context, cartID uint64) (*model.Order, error) {
	defer r.m.lock()()
	for _, o := range r.m.orders {
		if o.CartID == cartID {
			o = r.load(o)
			return &o, nil
		}
	}
	return nil, notFound()
}

func (r memOrders) Save(_ context.Context, o *model.Order) error {
	defer r.m.lock()()
	cp := *o
	cp.Cart = model.Cart{}
	cp.Payments, cp.Shipments, cp.Comments = nil, nil, nil
	r.m.orders[o.ID] = cp
	return nil
}

func (r memOrders) CreateShipment(_ context.Context, s *model.Shipment) error {
	defer r.m.lock()()
	if s.ID == 0 {
		s.ID = r.m.nextID()
	}
	r.m.shipments[s.ID] = *s
	return nil
}

func (r memOrders) CreatePayment(_ context.Context, p *model.Payment) error {
	defer r.m.lock()()
	if p.ID == 0 {
		p.ID = r.m.nextID()
	}
	r.m.payments[p.ID] = *p
	return nil
}

func (r memOrders) CreateComment(_ context.Context, c *model.OrderComment) error {
	defer r.m.lock()()
	if c.ID == 0 {
		c.ID = r.m.nextID()
	}
	r.m.comments[c.ID] = *c
	return nil
}
