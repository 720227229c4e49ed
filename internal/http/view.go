package http

import (
	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type GiftDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message,omitempty"`
}

type LineDTO struct {
	ProductID      string    `json:"product_id"`
	Title          string    `json:"title"`
	ImageURL       string    `json:"image_url,omitempty"`
	UnitPrice      string    `json:"unit_price"`
	DesiredAmount  string    `json:"desired_amount"`
	AvailableStock int       `json:"available_stock"`
	Quantity       int       `json:"quantity"`
	Remaining      int       `json:"remaining_for_gifts"`
	LineTotal      string    `json:"line_total"`
	Gifts          []GiftDTO `json:"gifts"`
}

type TotalsDTO struct {
	BaseTotal   string `json:"base_total"`
	PlatformFee string `json:"platform_fee"`
	Subtotal    string `json:"subtotal"`
	ServiceFee  string `json:"service_fee"`
	GrandTotal  string `json:"grand_total"`
}

type CartResponse struct {
	Items     []LineDTO `json:"items"`
	ItemCount int       `json:"item_count"`
	Totals    TotalsDTO `json:"totals"`
}

// newCartResponse renders one snapshot so lines and totals always agree.
func newCartResponse(lines []domain.CartLine) CartResponse {
	resp := CartResponse{Items: make([]LineDTO, 0, len(lines))}
	for _, l := range lines {
		gifts := make([]GiftDTO, 0, len(l.Gifts))
		for _, g := range l.Gifts {
			gifts = append(gifts, GiftDTO(g))
		}
		resp.Items = append(resp.Items, LineDTO{
			ProductID:      l.Product.ID,
			Title:          l.Product.DisplayName(),
			ImageURL:       l.Product.ImageURL,
			UnitPrice:      pricing.Format(l.Product.SellingPrice),
			DesiredAmount:  pricing.Format(l.Product.DesiredAmount),
			AvailableStock: l.Product.AvailableStock,
			Quantity:       l.Quantity,
			Remaining:      remainingForGifts(l),
			LineTotal:      pricing.Format(l.Product.SellingPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))),
			Gifts:          gifts,
		})
		resp.ItemCount += l.Quantity
	}

	t := pricing.Rounded(pricing.ComputeTotals(lines))
	resp.Totals = TotalsDTO{
		BaseTotal:   pricing.Format(t.BaseTotal),
		PlatformFee: pricing.Format(t.PlatformFee),
		Subtotal:    pricing.Format(t.Subtotal),
		ServiceFee:  pricing.Format(t.ServiceFee),
		GrandTotal:  pricing.Format(t.GrandTotal),
	}
	return resp
}

// remainingForGifts reports a broken allocation instead of hiding it behind the
// clamp in CartLine.RemainingQuantity.
func remainingForGifts(l domain.CartLine) int {
	if allocated := l.AllocatedGifts(); allocated > l.Quantity {
		logrus.WithFields(logrus.Fields{
			"product_id": l.Product.ID,
			"quantity":   l.Quantity,
			"allocated":  allocated,
		}).Error("gift allocation exceeds line quantity")
	}
	return l.RemainingQuantity()
}
