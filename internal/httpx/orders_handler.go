package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/nexuslabs/commerce-core/internal/checkout"
	"github.com/nexuslabs/commerce-core/internal/lifecycle"
	"github.com/nexuslabs/commerce-core/internal/orders"
	"github.com/nexuslabs/commerce-core/internal/payments"
	"github.com/nexuslabs/commerce-core/internal/redisx"
)

type OrdersHandler struct {
	Checkout  *checkout.Service
	Lifecycle *lifecycle.Service
	Tracker   *payments.Tracker
	Repo      *orders.Repo
	Redis     *redis.Client
}

type CheckoutReq struct {
	UserID string `json:"user_id"`
	CartID string `json:"cart_id"`
}

type CheckoutResp struct {
	Order      *orders.Order      `json:"order"`
	Items      []orders.OrderItem `json:"items,omitempty"`
	Idempotent bool               `json:"idempotent"`
}

type PaymentOutcomeReq struct {
	AmountCents   int64  `json:"amount_cents"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	Accepted      bool   `json:"accepted"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/status", h.getStatus)
	r.Post("/orders/{id}/cancel", h.transition(orders.EventCancel))
	r.Post("/orders/{id}/ship", h.transition(orders.EventShip))
	r.Post("/orders/{id}/deliver", h.transition(orders.EventDeliver))
	r.Post("/orders/{id}/refund", h.transition(orders.EventRefund))
	r.Post("/orders/{id}/payments", h.recordPayment)
	r.Get("/orders/{id}/payments", h.listPayments)
}

// checkout converts the cart into an order. User and cart identity
// come from the request layer; a retried request for an already
// converted cart returns the original order via the Redis shortcut.
func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.CartID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	idemKey := fmt.Sprintf(redisx.KeyIdemCheckout, req.CartID)
	if orderID, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && orderID != "" {
		o, items, err := h.Repo.Get(ctx, orderID)
		if err == nil {
			writeJSON(w, http.StatusOK, CheckoutResp{Order: o, Items: items, Idempotent: true})
			return
		}
	}

	o, items, err := h.Checkout.Convert(ctx, req.UserID, req.CartID)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	h.cacheStatus(ctx, o)

	writeJSON(w, http.StatusCreated, CheckoutResp{Order: o, Items: items})
}

func (h *OrdersHandler) transition(ev orders.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "id")
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		o, err := h.Lifecycle.Apply(ctx, orderID, ev)
		if err != nil {
			writeError(w, err)
			return
		}
		h.cacheStatus(ctx, o)
		writeJSON(w, http.StatusOK, o)
	}
}

// recordPayment is the gateway callback: the processor already
// accepted or rejected the charge, we only book the outcome.
func (h *OrdersHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req PaymentOutcomeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Method == "" || req.TransactionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Tracker.RecordAttempt(ctx, payments.Attempt{
		OrderID:       orderID,
		AmountCents:   req.AmountCents,
		Method:        req.Method,
		TransactionID: req.TransactionID,
		Accepted:      req.Accepted,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if o, _, err := h.Repo.Get(ctx, orderID); err == nil {
		h.cacheStatus(ctx, o)
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *OrdersHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.Payments(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, items, err := h.Repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResp{Order: o, Items: items})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Repo.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// getStatus serves from the Redis cache first, falling back to the DB.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	o, _, err := h.Repo.Get(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": o.Status, "payment_status": o.PaymentStatus,
	})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	b, _ := json.Marshal(map[string]any{
		"status": o.Status, "payment_status": o.PaymentStatus,
	})
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
}
