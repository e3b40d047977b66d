package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

// Memory keeps products in a map under one mutex.
type Memory struct {
	mu       sync.Mutex
	products map[string]Product
}

func NewMemory() *Memory {
	return &Memory{products: map[string]Product{}}
}

func (m *Memory) Seed(p Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = p
}

func (m *Memory) Get(ctx context.Context, id string) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) List(ctx context.Context) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Restock allows negative qty but never drives stock below zero.
func (m *Memory) Restock(ctx context.Context, id string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok || p.StockQty+qty < 0 {
		return orders.ErrConflictRetry
	}
	p.StockQty += qty
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return nil
}

func (m *Memory) SetAvailability(ctx context.Context, id string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return orders.ErrNotFound
	}
	p.Available = available
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return nil
}
