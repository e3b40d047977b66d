package cart

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

type memProduct struct {
	name       string
	priceCents int64
	available  bool
}

// Memory keeps carts in maps under one mutex. The same lock covers
// the read-then-insert in GetOrCreateActive, standing in for the
// partial unique index the Postgres repo leans on.
type Memory struct {
	mu       sync.Mutex
	byUser   map[string]*Cart            // active cart per user
	byID     map[string]*Cart
	items    map[string]map[string]int   // cartID -> productID -> qty
	products map[string]memProduct
}

func NewMemory() *Memory {
	return &Memory{
		byUser:   map[string]*Cart{},
		byID:     map[string]*Cart{},
		items:    map[string]map[string]int{},
		products: map[string]memProduct{},
	}
}

// SeedProduct registers product data for the Items view.
func (m *Memory) SeedProduct(id, name string, priceCents int64, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = memProduct{name: name, priceCents: priceCents, available: available}
}

func (m *Memory) GetOrCreateActive(ctx context.Context, userID string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byUser[userID]; ok {
		cp := *c
		return &cp, nil
	}
	now := time.Now().UTC()
	c := &Cart{ID: uuid.NewString(), UserID: userID, Active: true, CreatedAt: now, UpdatedAt: now}
	m.byUser[userID] = c
	m.byID[c.ID] = c
	m.items[c.ID] = map[string]int{}
	cp := *c
	return &cp, nil
}

func (m *Memory) UpsertItem(ctx context.Context, cartID, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("qty must be >= 1")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	its, ok := m.items[cartID]
	if !ok {
		return orders.ErrNotFound
	}
	its[productID] += qty
	return nil
}

func (m *Memory) SetItemQty(ctx context.Context, cartID, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("qty must be >= 1")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	its, ok := m.items[cartID]
	if !ok {
		return orders.ErrNotFound
	}
	if _, ok := its[productID]; !ok {
		return orders.ErrNotFound
	}
	its[productID] = qty
	return nil
}

func (m *Memory) RemoveItem(ctx context.Context, cartID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	its, ok := m.items[cartID]
	if !ok {
		return orders.ErrNotFound
	}
	if _, ok := its[productID]; !ok {
		return orders.ErrNotFound
	}
	delete(its, productID)
	return nil
}

func (m *Memory) Items(ctx context.Context, cartID string) ([]ItemView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	its, ok := m.items[cartID]
	if !ok {
		return nil, orders.ErrNotFound
	}
	out := make([]ItemView, 0, len(its))
	for pid, qty := range its {
		v := ItemView{ProductID: pid, Qty: qty}
		if p, ok := m.products[pid]; ok {
			v.Name = p.name
			v.PriceCents = p.priceCents
			v.Available = p.available
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}
