package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Feed     *FeedHandler
	Orders   *OrdersHandler
}

func health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter wires the REST routes and the live feed.
func NewRouter(h Handlers, log logrus.FieldLogger, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)

	r.Get("/health", health)

	r.Route("/api/v1", func(r chi.Router) {
		// the feed is long-lived and hijacks the connection
		if h.Feed != nil {
			r.Get("/ws", h.Feed.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Use(middleware.Compress(5))

			r.Get("/health", health)
			r.Get("/pricing/selling-price", SellingPrice)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Get("/checkout-payload", h.Cart.CheckoutPayload)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
				r.Post("/items/{product_id}/gifts", h.Cart.AddGift)
				r.Delete("/items/{product_id}/gifts/{index}", h.Cart.RemoveGift)
			})

			if h.Checkout != nil {
				r.Post("/checkout", h.Checkout.Checkout)
				r.Post("/checkout/approved", h.Checkout.PaymentApproved)
			}

			if h.Orders != nil {
				r.Get("/orders/me", h.Orders.MyOrders)
				r.Get("/orders/admin", h.Orders.AdminOrders)
			}
		})
	})

	return r
}
