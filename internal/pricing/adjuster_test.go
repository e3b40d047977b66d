package pricing

import (
	"testing"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

var items = []orders.OrderItem{
	{ProductID: "p1", Qty: 2, UnitPriceCents: 1000},
	{ProductID: "p2", Qty: 1, UnitPriceCents: 250},
}

func TestNone(t *testing.T) {
	if got := (None{}).Adjust(items); got != 0 {
		t.Fatalf("None charged %d", got)
	}
}

func TestFlatShipping(t *testing.T) {
	if got := (FlatShipping{FeeCents: 399}).Adjust(items); got != 399 {
		t.Fatalf("flat fee = %d, want 399", got)
	}
	if got := (FlatShipping{FeeCents: 399}).Adjust(nil); got != 0 {
		t.Fatalf("flat fee on empty order = %d, want 0", got)
	}
}

func TestPercentTax(t *testing.T) {
	// subtotal 2250, 8% = 180
	if got := (PercentTax{BasisPoints: 800}).Adjust(items); got != 180 {
		t.Fatalf("tax = %d, want 180", got)
	}
}
