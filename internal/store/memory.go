package store

import (
	"context"
	"sync"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

// MemProduct is the slice of a product row the core touches.
type MemProduct struct {
	PriceCents int64
	Stock      int
	Available  bool
}

// Memory is an in-memory Store. A Tx holds the store lock from Begin
// until Commit/Rollback, so units of work serialize; Rollback restores
// the snapshot taken at Begin. Used by service tests and local runs.
type Memory struct {
	mu        sync.Mutex
	products  map[string]MemProduct
	carts     map[string][]CartEntry
	orderRows map[string]*orders.Order
	itemRows  map[string][]orders.OrderItem
	payRows   map[string][]orders.Payment
}

type CartEntry struct {
	ProductID string
	Qty       int
}

func NewMemory() *Memory {
	return &Memory{
		products:  map[string]MemProduct{},
		carts:     map[string][]CartEntry{},
		orderRows: map[string]*orders.Order{},
		itemRows:  map[string][]orders.OrderItem{},
		payRows:   map[string][]orders.Payment{},
	}
}

// ---- seed / inspect helpers (outside any tx) ----

func (m *Memory) SeedProduct(id string, priceCents int64, stock int, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = MemProduct{PriceCents: priceCents, Stock: stock, Available: available}
}

func (m *Memory) SeedCartItem(cartID, productID string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cartID] = append(m.carts[cartID], CartEntry{ProductID: productID, Qty: qty})
}

func (m *Memory) DeleteProduct(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

func (m *Memory) Product(id string) (MemProduct, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return p, ok
}

func (m *Memory) CartSize(cartID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts[cartID])
}

func (m *Memory) Order(id string) (*orders.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orderRows[id]
	if !ok {
		return nil, false
	}
	cp := *o
	return &cp, true
}

func (m *Memory) Items(orderID string) []orders.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]orders.OrderItem(nil), m.itemRows[orderID]...)
}

func (m *Memory) Payments(orderID string) []orders.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]orders.Payment(nil), m.payRows[orderID]...)
}

// ---- Store ----

func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	m.mu.Lock()
	return &memTx{m: m, snap: m.snapshot()}, nil
}

type snapState struct {
	products  map[string]MemProduct
	carts     map[string][]CartEntry
	orderRows map[string]*orders.Order
	itemRows  map[string][]orders.OrderItem
	payRows   map[string][]orders.Payment
}

func (m *Memory) snapshot() snapState {
	s := snapState{
		products:  make(map[string]MemProduct, len(m.products)),
		carts:     make(map[string][]CartEntry, len(m.carts)),
		orderRows: make(map[string]*orders.Order, len(m.orderRows)),
		itemRows:  make(map[string][]orders.OrderItem, len(m.itemRows)),
		payRows:   make(map[string][]orders.Payment, len(m.payRows)),
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.carts {
		s.carts[k] = append([]CartEntry(nil), v...)
	}
	for k, v := range m.orderRows {
		cp := *v
		s.orderRows[k] = &cp
	}
	for k, v := range m.itemRows {
		s.itemRows[k] = append([]orders.OrderItem(nil), v...)
	}
	for k, v := range m.payRows {
		s.payRows[k] = append([]orders.Payment(nil), v...)
	}
	return s
}

type memTx struct {
	m    *Memory
	snap snapState
	done bool
}

func (t *memTx) CartLines(ctx context.Context, cartID string) ([]Line, error) {
	entries := t.m.carts[cartID]
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		p, ok := t.m.products[e.ProductID]
		if !ok {
			lines = append(lines, Line{ProductID: e.ProductID, Qty: e.Qty, Available: false})
			continue
		}
		lines = append(lines, Line{
			ProductID:  e.ProductID,
			Qty:        e.Qty,
			PriceCents: p.PriceCents,
			Stock:      p.Stock,
			Available:  p.Available,
		})
	}
	return lines, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *orders.Order, items []orders.OrderItem) error {
	cp := *o
	t.m.orderRows[o.ID] = &cp
	t.m.itemRows[o.ID] = append([]orders.OrderItem(nil), items...)
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	p, ok := t.m.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	t.m.products[productID] = p
	return true, nil
}

func (t *memTx) ClearCart(ctx context.Context, cartID string) error {
	delete(t.m.carts, cartID)
	return nil
}

func (t *memTx) OrderForUpdate(ctx context.Context, orderID string) (*orders.Order, error) {
	o, ok := t.m.orderRows[orderID]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (t *memTx) SetOrderStatus(ctx context.Context, orderID string, st orders.Status, ps orders.PaymentStatus) error {
	o, ok := t.m.orderRows[orderID]
	if !ok {
		return orders.ErrNotFound
	}
	o.Status = st
	o.PaymentStatus = ps
	return nil
}

func (t *memTx) OrderItems(ctx context.Context, orderID string) ([]orders.OrderItem, error) {
	return append([]orders.OrderItem(nil), t.m.itemRows[orderID]...), nil
}

func (t *memTx) RestockItems(ctx context.Context, items []orders.OrderItem) error {
	for _, it := range items {
		p, ok := t.m.products[it.ProductID]
		if !ok {
			continue // product deleted since the order was placed
		}
		p.Stock += it.Qty
		t.m.products[it.ProductID] = p
	}
	return nil
}

func (t *memTx) AppendPayment(ctx context.Context, p *orders.Payment) error {
	t.m.payRows[p.OrderID] = append(t.m.payRows[p.OrderID], *p)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.m.mu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.m.products = t.snap.products
	t.m.carts = t.snap.carts
	t.m.orderRows = t.snap.orderRows
	t.m.itemRows = t.snap.itemRows
	t.m.payRows = t.snap.payRows
	t.m.mu.Unlock()
	return nil
}
