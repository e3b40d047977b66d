package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/nexuslabs/commerce-core/internal/checkout"
	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/store"
)

// placeOrder runs a real conversion so the lifecycle tests operate on
// orders shaped exactly like production ones.
func placeOrder(t *testing.T, mem *store.Memory) *orders.Order {
	t.Helper()
	mem.SeedProduct("p1", 1000, 3, true)
	mem.SeedProduct("p2", 500, 5, true)
	mem.SeedCartItem("cart-a", "p1", 2)
	mem.SeedCartItem("cart-a", "p2", 1)

	conv := &checkout.Service{Store: mem, ServiceName: "test"}
	o, _, err := conv.Convert(context.Background(), "user-a", "cart-a")
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return o
}

func TestCancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	o := placeOrder(t, mem)

	if p, _ := mem.Product("p1"); p.Stock != 1 {
		t.Fatalf("pre-cancel p1 stock = %d, want 1", p.Stock)
	}

	svc := &Service{Store: mem, ServiceName: "test"}
	got, err := svc.Apply(ctx, o.ID, orders.EventCancel)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != orders.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", got.Status)
	}

	// stock back to its pre-order values
	if p, _ := mem.Product("p1"); p.Stock != 3 {
		t.Fatalf("p1 stock = %d, want 3", p.Stock)
	}
	if p, _ := mem.Product("p2"); p.Stock != 5 {
		t.Fatalf("p2 stock = %d, want 5", p.Stock)
	}
}

func TestShipFromPendingRejected(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	o := placeOrder(t, mem)

	svc := &Service{Store: mem, ServiceName: "test"}
	_, err := svc.Apply(ctx, o.ID, orders.EventShip)
	if !errors.Is(err, orders.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}

	// order untouched, stock untouched
	got, _ := mem.Order(o.ID)
	if got.Status != orders.StatusPending {
		t.Fatalf("status changed to %s", got.Status)
	}
	if p, _ := mem.Product("p1"); p.Stock != 1 {
		t.Fatalf("stock touched by rejected transition: %d", p.Stock)
	}
}

func TestFulfilmentPath(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	o := placeOrder(t, mem)

	svc := &Service{Store: mem, ServiceName: "test"}

	for _, step := range []struct {
		ev   orders.Event
		want orders.Status
	}{
		{orders.EventPaymentAccepted, orders.StatusPaid},
		{orders.EventShip, orders.StatusShipped},
		{orders.EventDeliver, orders.StatusDelivered},
	} {
		got, err := svc.Apply(ctx, o.ID, step.ev)
		if err != nil {
			t.Fatalf("%s: %v", step.ev, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: status = %s, want %s", step.ev, got.Status, step.want)
		}
	}

	// fulfilment never touches stock
	if p, _ := mem.Product("p1"); p.Stock != 1 {
		t.Fatalf("stock changed during fulfilment: %d", p.Stock)
	}
}

func TestRefundIsTerminal(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	o := placeOrder(t, mem)

	svc := &Service{Store: mem, ServiceName: "test"}
	if _, err := svc.Apply(ctx, o.ID, orders.EventPaymentAccepted); err != nil {
		t.Fatalf("pay: %v", err)
	}
	got, err := svc.Apply(ctx, o.ID, orders.EventRefund)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got.Status != orders.StatusRefunded || got.PaymentStatus != orders.PaymentRefunded {
		t.Fatalf("got %s/%s, want REFUNDED/REFUNDED", got.Status, got.PaymentStatus)
	}

	for _, ev := range []orders.Event{orders.EventShip, orders.EventRefund, orders.EventPaymentAccepted, orders.EventCancel} {
		if _, err := svc.Apply(ctx, o.ID, ev); !errors.Is(err, orders.ErrInvalidTransition) {
			t.Fatalf("%s after refund: want ErrInvalidTransition, got %v", ev, err)
		}
	}
}

func TestApplyUnknownOrder(t *testing.T) {
	svc := &Service{Store: store.NewMemory(), ServiceName: "test"}
	_, err := svc.Apply(context.Background(), "missing", orders.EventCancel)
	if !errors.Is(err, orders.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
