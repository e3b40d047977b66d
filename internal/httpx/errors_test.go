package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"empty cart -> 400", orders.ErrEmptyCart, http.StatusBadRequest},
		{"amount mismatch -> 400", orders.ErrAmountMismatch, http.StatusBadRequest},
		{"not found -> 404", orders.ErrNotFound, http.StatusNotFound},
		{"insufficient stock -> 409", orders.ErrInsufficientStock, http.StatusConflict},
		{"unavailable -> 409", fmt.Errorf("product p1: %w", orders.ErrProductUnavailable), http.StatusConflict},
		{"invalid transition -> 409", orders.ErrInvalidTransition, http.StatusConflict},
		{"conflict retry -> 409", orders.ErrConflictRetry, http.StatusConflict},
		{"unknown -> 500", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, c.err)
			if rec.Code != c.want {
				t.Fatalf("status = %d, want %d", rec.Code, c.want)
			}
		})
	}
}

func TestWriteErrorMarksRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, fmt.Errorf("stock for p1: %w", orders.ErrConflictRetry))

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["retryable"] != true {
		t.Fatalf("conflict response not marked retryable: %v", body)
	}
}

func TestWriteErrorIncludesShortages(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &orders.ShortageError{Shortages: []orders.StockShortage{
		{ProductID: "p1", Requested: 3, Available: 1},
	}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Shortages []orders.StockShortage `json:"shortages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Shortages) != 1 || body.Shortages[0].ProductID != "p1" {
		t.Fatalf("shortage detail missing: %+v", body)
	}
}
