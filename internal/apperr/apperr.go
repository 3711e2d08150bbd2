// Package apperr defines the error taxonomy shared by the catalog, order and
// inventory modules. Modules wrap these sentinels with context using
// fmt.Errorf("%w: ...") and the HTTP boundary classifies them with errors.Is.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput marks malformed or missing required fields. Never retried.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProductNotFound marks a reference to a product identifier that does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound marks a lookup of an unknown order identifier.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInsufficientInventory marks an order line no size entry can satisfy.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrConflict marks a lost optimistic-concurrency race. Safe to retry the whole order.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrStoreUnavailable marks a transient infrastructure failure. Safe to retry with backoff.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Status maps an error to the HTTP status the boundary should answer with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInsufficientInventory):
		return http.StatusBadRequest
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a short machine-readable name for err, used in JSON error
// bodies and as a metrics label.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal_error"
	}
}

// Unavailable wraps a driver error as ErrStoreUnavailable. Context errors
// pass through untouched so a caller that gave up is not reported as an outage.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
