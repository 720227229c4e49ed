package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/gogift/internal/domain"
)

type Checkouter interface {
	Checkout(ctx context.Context) (*domain.Preference, error)
	PaymentApproved(ctx context.Context, paymentRef string) (bool, error)
}

type CheckoutHandler struct {
	svc     Checkouter
	timeout time.Duration
}

func NewCheckoutHandler(svc Checkouter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type PaymentApprovedRequestDTO struct {
	PaymentID string `json:"payment_id"`
}

type PaymentApprovedResponseDTO struct {
	PaymentID string `json:"payment_id"`
	Processed bool   `json:"processed"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	pref, err := h.svc.Checkout(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, pref)
}

// POST /api/v1/checkout/approved
func (h *CheckoutHandler) PaymentApproved(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaymentApprovedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	processed, err := h.svc.PaymentApproved(ctx, req.PaymentID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PaymentApprovedResponseDTO{
		PaymentID: req.PaymentID,
		Processed: processed,
	})
}
