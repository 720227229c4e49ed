package pricing

import (
	"github.com/fjod/gogift/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// PlatformCommission converts a seller's desired payout into the buyer-facing price.
	PlatformCommission = decimal.RequireFromString("0.03")
	// ServiceFeeRate is charged on the buyer-facing subtotal at checkout.
	ServiceFeeRate = decimal.RequireFromString("0.05")
)

// CalculateSellingPrice applies the platform commission and rounds to cents.
// Non-positive amounts price at zero.
func CalculateSellingPrice(desiredAmount decimal.Decimal) decimal.Decimal {
	if !desiredAmount.IsPositive() {
		return decimal.Zero
	}
	return desiredAmount.Mul(decimal.NewFromInt(1).Add(PlatformCommission)).Round(2)
}

// ComputeTotals sums the cart without intermediate rounding.
func ComputeTotals(lines []domain.CartLine) domain.Totals {
	var t domain.Totals
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		t.BaseTotal = t.BaseTotal.Add(l.Product.DesiredAmount.Mul(qty))
		t.PlatformFee = t.PlatformFee.Add(l.Product.Margin().Mul(qty))
		t.Subtotal = t.Subtotal.Add(l.Product.SellingPrice.Mul(qty))
	}
	t.ServiceFee = t.Subtotal.Mul(ServiceFeeRate)
	t.GrandTotal = t.Subtotal.Add(t.ServiceFee)
	return t
}

// Rounded returns a copy of t rounded to cents, for display and transmission.
func Rounded(t domain.Totals) domain.Totals {
	return domain.Totals{
		BaseTotal:   t.BaseTotal.Round(2),
		PlatformFee: t.PlatformFee.Round(2),
		Subtotal:    t.Subtotal.Round(2),
		ServiceFee:  t.ServiceFee.Round(2),
		GrandTotal:  t.GrandTotal.Round(2),
	}
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
