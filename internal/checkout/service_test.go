package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/pricing"
	"github.com/nexuslabs/commerce-core/internal/store"
)

type capturePublisher struct {
	mu     sync.Mutex
	values [][]byte
}

func (c *capturePublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = append(c.values, value)
}

func newService(mem *store.Memory) (*Service, *capturePublisher) {
	pub := &capturePublisher{}
	return &Service{Store: mem, Producer: pub, ServiceName: "test"}, pub
}

func TestConvertSuccess(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.SeedProduct("p1", 1000, 1, true)
	mem.SeedProduct("p2", 250, 10, true)
	mem.SeedCartItem("cart-a", "p1", 1)
	mem.SeedCartItem("cart-a", "p2", 4)

	svc, pub := newService(mem)
	o, items, err := svc.Convert(ctx, "user-a", "cart-a")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if o.Status != orders.StatusPending || o.PaymentStatus != orders.PaymentUnpaid {
		t.Fatalf("new order must be PENDING/UNPAID, got %s/%s", o.Status, o.PaymentStatus)
	}

	// total equals the sum over items of qty x snapshotted unit price
	var sum int64
	for _, it := range items {
		sum += it.UnitPriceCents * int64(it.Qty)
	}
	if sum != o.TotalCents || o.TotalCents != 1000+4*250 {
		t.Fatalf("total %d, items sum %d", o.TotalCents, sum)
	}

	// stock decreased by exactly the ordered quantities
	if p, _ := mem.Product("p1"); p.Stock != 0 {
		t.Fatalf("p1 stock = %d, want 0", p.Stock)
	}
	if p, _ := mem.Product("p2"); p.Stock != 6 {
		t.Fatalf("p2 stock = %d, want 6", p.Stock)
	}

	// cart emptied
	if n := mem.CartSize("cart-a"); n != 0 {
		t.Fatalf("cart still has %d items", n)
	}

	// order persisted and event emitted
	if _, ok := mem.Order(o.ID); !ok {
		t.Fatal("order not persisted")
	}
	if len(pub.values) != 1 {
		t.Fatalf("want 1 OrderCreated event, got %d", len(pub.values))
	}
}

func TestConvertEmptyCart(t *testing.T) {
	mem := store.NewMemory()
	svc, _ := newService(mem)

	_, _, err := svc.Convert(context.Background(), "user-a", "no-such-cart")
	if !errors.Is(err, orders.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}
}

func TestConvertInsufficientStock(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedProduct("p1", 500, 2, true)
	mem.SeedCartItem("cart-a", "p1", 3)

	svc, _ := newService(mem)
	_, _, err := svc.Convert(context.Background(), "user-a", "cart-a")
	if !errors.Is(err, orders.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}

	var shortage *orders.ShortageError
	if !errors.As(err, &shortage) {
		t.Fatalf("want ShortageError detail, got %T", err)
	}
	if len(shortage.Shortages) != 1 || shortage.Shortages[0].Available != 2 || shortage.Shortages[0].Requested != 3 {
		t.Fatalf("bad shortage detail: %+v", shortage.Shortages)
	}

	// nothing changed
	if p, _ := mem.Product("p1"); p.Stock != 2 {
		t.Fatalf("stock touched on failed conversion: %d", p.Stock)
	}
	if n := mem.CartSize("cart-a"); n != 1 {
		t.Fatalf("cart touched on failed conversion: %d items", n)
	}
}

func TestConvertProductUnavailable(t *testing.T) {
	t.Run("deactivated", func(t *testing.T) {
		mem := store.NewMemory()
		mem.SeedProduct("p1", 500, 5, false)
		mem.SeedCartItem("cart-a", "p1", 1)

		svc, _ := newService(mem)
		_, _, err := svc.Convert(context.Background(), "user-a", "cart-a")
		if !errors.Is(err, orders.ErrProductUnavailable) {
			t.Fatalf("want ErrProductUnavailable, got %v", err)
		}
	})

	t.Run("deleted since added", func(t *testing.T) {
		mem := store.NewMemory()
		mem.SeedProduct("p1", 500, 5, true)
		mem.SeedCartItem("cart-a", "p1", 1)
		mem.DeleteProduct("p1")

		svc, _ := newService(mem)
		_, _, err := svc.Convert(context.Background(), "user-a", "cart-a")
		if !errors.Is(err, orders.ErrProductUnavailable) {
			t.Fatalf("want ErrProductUnavailable, got %v", err)
		}
	})
}

func TestConvertSnapshotsPrice(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.SeedProduct("p1", 1000, 5, true)
	mem.SeedCartItem("cart-a", "p1", 2)

	svc, _ := newService(mem)
	o, items, err := svc.Convert(ctx, "user-a", "cart-a")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	// raising the price afterwards must not alter the order
	mem.SeedProduct("p1", 9999, 3, true)

	got, _ := mem.Order(o.ID)
	if got.TotalCents != 2000 {
		t.Fatalf("historical total changed: %d", got.TotalCents)
	}
	if items[0].UnitPriceCents != 1000 {
		t.Fatalf("snapshotted unit price changed: %d", items[0].UnitPriceCents)
	}
}

func TestConvertAppliesPricingAdjustmentOnce(t *testing.T) {
	mem := store.NewMemory()
	mem.SeedProduct("p1", 1000, 5, true)
	mem.SeedCartItem("cart-a", "p1", 1)

	svc, _ := newService(mem)
	svc.Adjust = pricing.FlatShipping{FeeCents: 399}

	o, _, err := svc.Convert(context.Background(), "user-a", "cart-a")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if o.TotalCents != 1399 {
		t.Fatalf("total with shipping = %d, want 1399", o.TotalCents)
	}
}

func TestConvertLastUnitRace(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.SeedProduct("p1", 1000, 1, true)
	mem.SeedCartItem("cart-a", "p1", 1)
	mem.SeedCartItem("cart-b", "p1", 1)

	svc, _ := newService(mem)

	var mu sync.Mutex
	var wins int
	var losses []error

	g := new(errgroup.Group)
	for _, cartID := range []string{"cart-a", "cart-b"} {
		cartID := cartID
		g.Go(func() error {
			_, _, err := svc.Convert(ctx, "user-"+cartID, cartID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return nil
			}
			losses = append(losses, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if wins != 1 {
		t.Fatalf("want exactly 1 successful conversion, got %d", wins)
	}
	loss := losses[0]
	if !errors.Is(loss, orders.ErrInsufficientStock) && !errors.Is(loss, orders.ErrConflictRetry) {
		t.Fatalf("loser must fail with InsufficientStock or ConflictRetry, got %v", loss)
	}
	if p, _ := mem.Product("p1"); p.Stock != 0 {
		t.Fatalf("stock = %d, want 0 (no oversell, no double decrement)", p.Stock)
	}
}
