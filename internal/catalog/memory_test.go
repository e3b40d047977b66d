package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed(Product{ID: "p2", Name: "Zed", PriceCents: 200, StockQty: 1, Available: true})
	m.Seed(Product{ID: "p1", Name: "Able", PriceCents: 100, StockQty: 5, Available: true})

	p, err := m.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name != "Able" || p.StockQty != 5 {
		t.Fatalf("got %+v", p)
	}

	if _, err := m.Get(ctx, "ghost"); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("get absent: %v", err)
	}

	ps, err := m.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ps) != 2 || ps[0].Name != "Able" || ps[1].Name != "Zed" {
		t.Fatalf("ordering: %+v", ps)
	}
}

func TestRestockGuardsNegativeStock(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed(Product{ID: "p1", Name: "Able", StockQty: 3, Available: true})

	if err := m.Restock(ctx, "p1", -3); err != nil {
		t.Fatalf("drain to zero: %v", err)
	}
	if err := m.Restock(ctx, "p1", -1); !errors.Is(err, orders.ErrConflictRetry) {
		t.Fatalf("below zero allowed: %v", err)
	}
	if err := m.Restock(ctx, "p1", 10); err != nil {
		t.Fatalf("restock: %v", err)
	}
	p, _ := m.Get(ctx, "p1")
	if p.StockQty != 10 {
		t.Fatalf("stock = %d, want 10", p.StockQty)
	}

	if err := m.Restock(ctx, "ghost", 1); !errors.Is(err, orders.ErrConflictRetry) {
		t.Fatalf("restock absent: %v", err)
	}
}

func TestSetAvailability(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed(Product{ID: "p1", Name: "Able", StockQty: 1, Available: true})

	if err := m.SetAvailability(ctx, "p1", false); err != nil {
		t.Fatalf("hide: %v", err)
	}
	p, _ := m.Get(ctx, "p1")
	if p.Available {
		t.Fatal("still available")
	}
	if err := m.SetAvailability(ctx, "ghost", true); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("absent: %v", err)
	}
}
