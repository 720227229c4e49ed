package http

import (
	"net/http"

	"github.com/fjod/gogift/internal/pricing"
	"github.com/shopspring/decimal"
)

type SellingPriceResponse struct {
	DesiredAmount string `json:"desired_amount"`
	SellingPrice  string `json:"selling_price"`
}

// GET /api/v1/pricing/selling-price?desired_amount=100
func SellingPrice(w http.ResponseWriter, r *http.Request) {
	desired, err := decimal.NewFromString(r.URL.Query().Get("desired_amount"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "desired_amount must be a number")
		return
	}

	respondJSON(w, http.StatusOK, SellingPriceResponse{
		DesiredAmount: pricing.Format(desired),
		SellingPrice:  pricing.Format(pricing.CalculateSellingPrice(desired)),
	})
}
