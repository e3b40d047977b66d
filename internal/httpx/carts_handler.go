package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nexuslabs/commerce-core/internal/cart"
)

type CartsHandler struct {
	Carts cart.Store
}

type cartItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *CartsHandler) Register(r *chi.Mux) {
	r.Get("/carts/mine", h.myCart)
	r.Post("/carts/{id}/items", h.addItem)
	r.Put("/carts/{id}/items/{productID}", h.setQty)
	r.Delete("/carts/{id}/items/{productID}", h.removeItem)
}

// myCart returns the user's active cart with live-priced items,
// creating the cart on first use.
func (h *CartsHandler) myCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Carts.GetOrCreateActive(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.Carts.Items(ctx, c.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	var totalCents int64
	for _, it := range items {
		totalCents += it.PriceCents * int64(it.Qty)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cart": c, "items": items, "total_cents": totalCents,
	})
}

func (h *CartsHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" || req.Qty < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product_id and qty >= 1 required"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.UpsertItem(ctx, chi.URLParam(r, "id"), req.ProductID, req.Qty); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartsHandler) setQty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Qty < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "qty >= 1 required"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.SetItemQty(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "productID"), req.Qty); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartsHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Carts.RemoveItem(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "productID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
