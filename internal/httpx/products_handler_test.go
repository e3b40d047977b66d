package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nexuslabs/commerce-core/internal/catalog"
)

func productsRouter(t *testing.T) (*chi.Mux, *catalog.Memory) {
	t.Helper()
	store := catalog.NewMemory()
	store.Seed(catalog.Product{ID: "p1", SellerID: "s1", Name: "Widget", PriceCents: 1050, StockQty: 3, Available: true})
	r := chi.NewRouter()
	h := &ProductsHandler{Products: store}
	h.Register(r)
	return r, store
}

func TestProductsListAndGet(t *testing.T) {
	r, _ := productsRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var ps []catalog.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &ps); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ps) != 1 || ps[0].ID != "p1" {
		t.Fatalf("list body: %+v", ps)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing product status %d", rec.Code)
	}
}

func TestProductsRestock(t *testing.T) {
	r, store := productsRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/p1/restock",
		strings.NewReader(`{"qty": 7}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("restock status %d: %s", rec.Code, rec.Body.String())
	}
	p, _ := store.Get(context.Background(), "p1")
	if p.StockQty != 10 {
		t.Fatalf("stock = %d, want 10", p.StockQty)
	}

	// cannot drain below zero
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/p1/restock",
		strings.NewReader(`{"qty": -11}`)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("over-drain status %d", rec.Code)
	}

	// zero qty is a validation error
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/p1/restock",
		strings.NewReader(`{"qty": 0}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero qty status %d", rec.Code)
	}
}

func TestProductsSetAvailability(t *testing.T) {
	r, store := productsRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/products/p1/availability",
		strings.NewReader(`{"available": false}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("availability status %d", rec.Code)
	}
	p, _ := store.Get(context.Background(), "p1")
	if p.Available {
		t.Fatal("product still available")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/products/nope/availability",
		strings.NewReader(`{"available": true}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing product status %d", rec.Code)
	}
}
