package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

func TestUpsertItemAccumulates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.SeedProduct("p1", "Widget", 1050, true)
	c, err := m.GetOrCreateActive(ctx, "user-a")
	if err != nil {
		t.Fatalf("cart: %v", err)
	}

	// adding the same product twice accumulates, not duplicates
	if err := m.UpsertItem(ctx, c.ID, "p1", 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := m.UpsertItem(ctx, c.ID, "p1", 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	items, err := m.Items(ctx, c.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d lines, want 1", len(items))
	}
	if items[0].Qty != 5 {
		t.Fatalf("qty = %d, want 5", items[0].Qty)
	}
	if items[0].PriceCents != 1050 || items[0].Name != "Widget" {
		t.Fatalf("live product data missing: %+v", items[0])
	}
}

func TestSetAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c, _ := m.GetOrCreateActive(ctx, "user-a")

	if err := m.SetItemQty(ctx, c.ID, "ghost", 2); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("set absent item: %v", err)
	}
	if err := m.RemoveItem(ctx, c.ID, "ghost"); !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("remove absent item: %v", err)
	}

	if err := m.UpsertItem(ctx, c.ID, "p1", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.SetItemQty(ctx, c.ID, "p1", 4); err != nil {
		t.Fatalf("set: %v", err)
	}
	items, _ := m.Items(ctx, c.ID)
	if len(items) != 1 || items[0].Qty != 4 {
		t.Fatalf("after set: %+v", items)
	}
	if err := m.RemoveItem(ctx, c.ID, "p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	items, _ = m.Items(ctx, c.ID)
	if len(items) != 0 {
		t.Fatalf("after remove: %+v", items)
	}
}

func TestGetOrCreateActiveConcurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var (
		mu  sync.Mutex
		ids = map[string]int{}
	)
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			c, err := m.GetOrCreateActive(ctx, "user-a")
			if err != nil {
				return err
			}
			mu.Lock()
			ids[c.ID]++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent get-or-create: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("race created %d distinct active carts, want 1", len(ids))
	}
}

func TestUpsertRejectsNonPositiveQty(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	c, _ := m.GetOrCreateActive(ctx, "user-a")
	if err := m.UpsertItem(ctx, c.ID, "p1", 0); err == nil {
		t.Fatal("qty 0 accepted")
	}
	if err := m.SetItemQty(ctx, c.ID, "p1", -1); err == nil {
		t.Fatal("negative qty accepted")
	}
}
