package domain

import "github.com/shopspring/decimal"

// GiftCard is a catalog entry as served by the marketplace API. The cart keeps a
// read-only copy taken at the time the card was added.
type GiftCard struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	SellingPrice   decimal.Decimal `json:"valor"`
	DesiredAmount  decimal.Decimal `json:"desired_amount"`
	AvailableStock int             `json:"quantityavailable"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	Active         bool            `json:"ativo,omitempty"`
}

// Margin is the per-unit platform fee, never negative.
func (g GiftCard) Margin() decimal.Decimal {
	m := g.SellingPrice.Sub(g.DesiredAmount)
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// DisplayName falls back to the id for cards without a title.
func (g GiftCard) DisplayName() string {
	if g.Title != "" {
		return g.Title
	}
	return g.ID
}
