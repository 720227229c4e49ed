package sales

import (
	"strings"

	"github.com/fjod/gogift/internal/domain"
	"github.com/shopspring/decimal"
)

var statusLabels = map[string]string{
	"APPROVED":       "Aprovado",
	"PENDING":        "Pendente",
	"REJECTED":       "Rejeitado",
	"EXPIRED":        "Expirado",
	"REFUNDED":       "Estornado",
	"VALID":          "Válido",
	"USED":           "Utilizado",
	"PARTIALLY_USED": "Parcialmente Utilizado",
}

// TranslateStatus returns the buyer-facing label for an order or code status.
// Unknown statuses are returned as is.
func TranslateStatus(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// CanRedeem reports whether a code may still be marked as used.
func CanRedeem(status domain.CodeStatus) bool {
	return status == domain.CodeStatusValid || status == domain.CodeStatusPartiallyUsed
}

// SellerSummary is what a seller is owed for the given sold items.
func SellerSummary(items []domain.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.SellerAmount)
	}
	return total
}

type Stats struct {
	TotalOrders    int             `json:"total_orders"`
	Revenue        decimal.Decimal `json:"revenue"`
	PlatformProfit decimal.Decimal `json:"platform_profit"`
}

// AdminStats counts every order but only sums money over approved ones.
func AdminStats(orders []domain.Order) Stats {
	stats := Stats{
		TotalOrders:    len(orders),
		Revenue:        decimal.Zero,
		PlatformProfit: decimal.Zero,
	}
	for _, o := range orders {
		if o.Status != domain.OrderStatusApproved {
			continue
		}
		stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		stats.PlatformProfit = stats.PlatformProfit.Add(OrderProfit(o))
	}
	return stats
}

// OrderProfit is the net amount received minus what is owed to sellers, or
// zero while the net amount is unknown.
func OrderProfit(o domain.Order) decimal.Decimal {
	if !o.NetAmount.Valid || o.NetAmount.Decimal.IsZero() {
		return decimal.Zero
	}
	return o.NetAmount.Decimal.Sub(SellerSummary(o.Items))
}

// Filter narrows an order list. Zero values match everything.
type Filter struct {
	Status    domain.OrderStatus
	Month     int
	Year      int
	BuyerName string
}

func FilterOrders(orders []domain.Order, f Filter) []domain.Order {
	buyer := strings.ToLower(strings.TrimSpace(f.BuyerName))
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Month != 0 && int(o.CreatedAt.Month()) != f.Month {
			continue
		}
		if f.Year != 0 && o.CreatedAt.Year() != f.Year {
			continue
		}
		if buyer != "" && (o.Owner == nil || !strings.Contains(strings.ToLower(o.Owner.Username), buyer)) {
			continue
		}
		out = append(out, o)
	}
	return out
}
