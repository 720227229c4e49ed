package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/gogift/internal/catalog"
	"github.com/fjod/gogift/internal/domain"
	"github.com/go-chi/chi/v5"
)

// CartEngine is the cart state machine the handlers drive.
type CartEngine interface {
	AddItem(ctx context.Context, product domain.GiftCard, quantity int) error
	UpdateQuantity(ctx context.Context, productID string, quantity int) error
	RemoveItem(ctx context.Context, productID string) error
	AddGift(ctx context.Context, productID string, recipient domain.GiftRecipient) error
	RemoveGift(ctx context.Context, productID string, index int) error
	Clear(ctx context.Context) error
	Snapshot() []domain.CartLine
	CheckoutPayload() domain.CheckoutPayload
	Subscribe(fn func([]domain.CartLine)) (unsubscribe func())
}

type CartHandler struct {
	engine  CartEngine
	catalog catalog.Lookup
	timeout time.Duration
}

func NewCartHandler(engine CartEngine, lookup catalog.Lookup, timeout time.Duration) *CartHandler {
	return &CartHandler{
		engine:  engine,
		catalog: lookup,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type AddGiftRequestDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newCartResponse(h.engine.Snapshot()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	product, err := h.catalog.GetGiftCard(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := h.engine.AddItem(ctx, *product, req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newCartResponse(h.engine.Snapshot()))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.engine.UpdateQuantity(ctx, chi.URLParam(r, "product_id"), req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(h.engine.Snapshot()))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.RemoveItem(ctx, chi.URLParam(r, "product_id")); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(h.engine.Snapshot()))
}

// POST /api/v1/cart/items/{product_id}/gifts
func (h *CartHandler) AddGift(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddGiftRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	recipient := domain.GiftRecipient{
		Name:     req.Name,
		Email:    req.Email,
		Quantity: req.Quantity,
		Message:  req.Message,
	}
	if err := h.engine.AddGift(ctx, chi.URLParam(r, "product_id"), recipient); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newCartResponse(h.engine.Snapshot()))
}

// DELETE /api/v1/cart/items/{product_id}/gifts/{index}
func (h *CartHandler) RemoveGift(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return
	}

	if err := h.engine.RemoveGift(ctx, chi.URLParam(r, "product_id"), index); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(h.engine.Snapshot()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.engine.Clear(ctx); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(h.engine.Snapshot()))
}

// GET /api/v1/cart/checkout-payload
func (h *CartHandler) CheckoutPayload(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.CheckoutPayload())
}
