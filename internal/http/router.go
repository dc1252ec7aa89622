package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	AllowedOrigins     []string
	CookieSecure       bool
}

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Products *ProductHandler
	Auth     *AuthHandler
	Account  *AccountHandler
	Orders   *OrdersHandler
}

// NewRouter wires every storefront route. The returned handler is wrapped in
// OpenTelemetry instrumentation.
func NewRouter(cfg RouterConfig, h Handlers, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(BodyLimitMiddleware(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TokenMiddleware)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/products", h.Products.List)
		r.Get("/products/{id}", h.Products.Get)
		r.Get("/categories", h.Products.Categories)
		r.Get("/shipping-methods", h.Cart.ShippingMethods)

		r.Group(func(r chi.Router) {
			r.Use(CartCookieMiddleware(cfg.CookieSecure))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Get("/summary", h.Cart.Summary)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})
			r.Post("/checkout", h.Checkout.Submit)
			r.Get("/checkout/status", h.Checkout.Status)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signin", h.Auth.SignIn)
			r.Post("/signup", h.Auth.SignUp)
			r.Post("/signout", h.Auth.SignOut)
		})

		r.Route("/account", func(r chi.Router) {
			r.Get("/profile", h.Account.GetProfile)
			r.Put("/profile", h.Account.UpdateProfile)
			r.Post("/addresses", h.Account.AddAddress)
			r.Put("/addresses/{address_id}", h.Account.UpdateAddress)
			r.Delete("/addresses/{address_id}", h.Account.DeleteAddress)
		})

		r.Get("/orders", h.Orders.ListOrders)
	})

	return otelhttp.NewHandler(r, "storefront")
}
