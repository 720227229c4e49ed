package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/gogift/internal/cart"
	"github.com/fjod/gogift/internal/catalog"
	"github.com/fjod/gogift/internal/checkout"
	"github.com/fjod/gogift/internal/sales"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps domain errors onto HTTP statuses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, cart.ErrInvalidInput):
		httpStatus, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, cart.ErrGiftIndexOutOfRange):
		httpStatus, code = http.StatusNotFound, "gift_not_found"
	case errors.Is(err, cart.ErrStockExceeded):
		httpStatus, code = http.StatusConflict, "stock_exceeded"
	case errors.Is(err, catalog.ErrNotFound):
		httpStatus, code = http.StatusNotFound, "not_found"
	case errors.Is(err, catalog.ErrUnavailable), errors.Is(err, sales.ErrUnavailable):
		httpStatus, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, checkout.ErrEmptyCart):
		httpStatus, code = http.StatusBadRequest, "empty_cart"
	case errors.Is(err, checkout.ErrMissingPaymentRef):
		httpStatus, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, checkout.ErrPaymentFailed),
		errors.Is(err, checkout.ErrPaymentUnavailable),
		errors.Is(err, checkout.ErrMissingInitPoint):
		httpStatus, code = http.StatusBadGateway, "payment_failed"
	case errors.Is(err, context.DeadlineExceeded):
		httpStatus, code = http.StatusGatewayTimeout, "timeout"
	default:
		logrus.WithError(err).WithField("request_id", getRequestID(r.Context())).Error("unhandled request error")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}
