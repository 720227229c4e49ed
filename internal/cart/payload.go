package cart

import "github.com/fjod/gogift/internal/domain"

// BuildCheckoutPayload maps cart lines to the payment-preference request body.
func BuildCheckoutPayload(lines []domain.CartLine) domain.CheckoutPayload {
	payload := domain.CheckoutPayload{
		Items: make([]domain.CheckoutItem, 0, len(lines)),
	}
	for _, l := range lines {
		gifts := make([]domain.CheckoutGift, 0, len(l.Gifts))
		for _, g := range l.Gifts {
			gifts = append(gifts, domain.CheckoutGift{
				Name:     g.Name,
				Email:    g.Email,
				Quantity: g.Quantity,
				Message:  g.Message,
			})
		}
		payload.Items = append(payload.Items, domain.CheckoutItem{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			Gifts:     gifts,
		})
	}
	return payload
}
