package domain

import "github.com/shopspring/decimal"

// Totals is the financial summary of a cart. Values are kept unrounded; callers
// round when rendering or transmitting.
type Totals struct {
	BaseTotal   decimal.Decimal `json:"base_total"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

type CheckoutGift struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
	Message  string `json:"message"`
}

type CheckoutItem struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Gifts     []CheckoutGift `json:"gifts"`
}

// CheckoutPayload is the body sent to the payment-preference service.
type CheckoutPayload struct {
	Items []CheckoutItem `json:"items"`
}

// Preference is the payment-preference service's answer; InitPoint is the URL
// the buyer is redirected to.
type Preference struct {
	PreferenceID string `json:"preference_id"`
	InitPoint    string `json:"init_point"`
}
