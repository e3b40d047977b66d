package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nexuslabs/commerce-core/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core's failure kinds onto HTTP. ConflictRetry is
// the only retryable one and gets 409; the rest are terminal for the
// given input.
func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}

	var shortage *orders.ShortageError
	if errors.As(err, &shortage) {
		body["shortages"] = shortage.Shortages
	}

	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeJSON(w, http.StatusNotFound, body)
	case errors.Is(err, orders.ErrEmptyCart),
		errors.Is(err, orders.ErrAmountMismatch):
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrProductUnavailable),
		errors.Is(err, orders.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, body)
	case errors.Is(err, orders.ErrConflictRetry):
		body["retryable"] = true
		writeJSON(w, http.StatusConflict, body)
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
