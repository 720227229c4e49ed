package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/pricing"
	"github.com/fjod/gogift/internal/sales"
)

type OrderSource interface {
	MyOrders(ctx context.Context, authorization string) ([]domain.Order, error)
	AllOrders(ctx context.Context, authorization string) ([]domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderSource
	timeout time.Duration
}

func NewOrdersHandler(orders OrderSource, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	ID           string `json:"id"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
	SellerAmount string `json:"seller_amount"`
	Status       string `json:"status"`
	StatusLabel  string `json:"status_label"`
	CanRedeem    bool   `json:"can_redeem"`
}

type OrderResponseDTO struct {
	ID           string         `json:"id"`
	Buyer        string         `json:"buyer,omitempty"`
	Status       string         `json:"status"`
	StatusLabel  string         `json:"status_label"`
	TotalAmount  string         `json:"total_amount"`
	SellerAmount string         `json:"seller_amount"`
	Profit       string         `json:"profit"`
	CreatedAt    string         `json:"created_at"`
	Items        []OrderItemDTO `json:"items"`
}

type StatsDTO struct {
	TotalOrders    int    `json:"total_orders"`
	Revenue        string `json:"revenue"`
	PlatformProfit string `json:"platform_profit"`
}

type AdminOrdersResponse struct {
	Orders []OrderResponseDTO `json:"orders"`
	Stats  StatsDTO           `json:"stats"`
}

// GET /api/v1/orders/me
func (h *OrdersHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.MyOrders(ctx, r.Header.Get("Authorization"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrders(orders))
}

// GET /api/v1/orders/admin?status=APPROVED&month=3&year=2025&buyer_name=ana
func (h *OrdersHandler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseOrderFilter(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.AllOrders(ctx, r.Header.Get("Authorization"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	filtered := sales.FilterOrders(orders, filter)
	stats := sales.AdminStats(filtered)
	respondJSON(w, http.StatusOK, AdminOrdersResponse{
		Orders: convertOrders(filtered),
		Stats: StatsDTO{
			TotalOrders:    stats.TotalOrders,
			Revenue:        pricing.Format(stats.Revenue),
			PlatformProfit: pricing.Format(stats.PlatformProfit),
		},
	})
}

func parseOrderFilter(w http.ResponseWriter, r *http.Request) (sales.Filter, bool) {
	q := r.URL.Query()
	f := sales.Filter{
		Status:    domain.OrderStatus(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
		BuyerName: q.Get("buyer_name"),
	}

	if v := q.Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			respondError(w, http.StatusBadRequest, "invalid_argument", "month must be between 1 and 12")
			return f, false
		}
		f.Month = month
	}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1 {
			respondError(w, http.StatusBadRequest, "invalid_argument", "year must be a positive number")
			return f, false
		}
		f.Year = year
	}
	return f, true
}

func convertOrders(orders []domain.Order) []OrderResponseDTO {
	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		items := make([]OrderItemDTO, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, OrderItemDTO{
				ID:           it.ID,
				Quantity:     it.Quantity,
				UnitPrice:    pricing.Format(it.UnitPrice),
				SellerAmount: pricing.Format(it.SellerAmount),
				Status:       string(it.Status),
				StatusLabel:  sales.TranslateStatus(string(it.Status)),
				CanRedeem:    sales.CanRedeem(it.Status),
			})
		}

		dto := OrderResponseDTO{
			ID:           o.ID,
			Status:       string(o.Status),
			StatusLabel:  sales.TranslateStatus(string(o.Status)),
			TotalAmount:  pricing.Format(o.TotalAmount),
			SellerAmount: pricing.Format(sales.SellerSummary(o.Items)),
			Profit:       pricing.Format(sales.OrderProfit(o)),
			CreatedAt:    o.CreatedAt.Format(time.RFC3339),
			Items:        items,
		}
		if o.Owner != nil {
			dto.Buyer = o.Owner.Username
		}
		dtos = append(dtos, dto)
	}
	return dtos
}
