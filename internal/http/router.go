package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Handlers struct {
	Cart      *CartHandler
	Products  *ProductHandler
	Directory *DirectoryHandler
	Checkout  *CheckoutHandler
	Orders    *OrdersHandler
}

func NewRouter(h Handlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.GetAllProducts)
			r.Get("/{product_id}", h.Products.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			r.Post("/items/{product_id}/toggle", h.Cart.ToggleSelected)
			r.Put("/selection", h.Cart.SelectAll)
			r.Delete("/selected", h.Cart.ClearSelected)
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", h.Directory.ListAddresses)
			r.Post("/", h.Directory.CreateAddress)
			r.Put("/{address_id}", h.Directory.UpdateAddress)
			r.Delete("/{address_id}", h.Directory.DeleteAddress)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", h.Directory.ListCards)
			r.Post("/", h.Directory.CreateCard)
			r.Put("/{card_id}", h.Directory.UpdateCard)
			r.Delete("/{card_id}", h.Directory.DeleteCard)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", h.Checkout.Start)
			r.Route("/{checkout_id}", func(r chi.Router) {
				r.Get("/", h.Checkout.Get)
				r.Delete("/", h.Checkout.Cancel)
				r.Put("/shipping-address", h.Checkout.SelectShippingAddress)
				r.Put("/billing-address", h.Checkout.SelectBillingAddress)
				r.Put("/payment-method", h.Checkout.SelectPaymentMethod)
				r.Post("/next", h.Checkout.Next)
				r.Post("/back", h.Checkout.Back)
				r.Post("/confirm", h.Checkout.Confirm)
			})
		})

		r.Get("/orders", h.Orders.ListOrders)
	})

	return otelhttp.NewHandler(r, "storefront")
}
