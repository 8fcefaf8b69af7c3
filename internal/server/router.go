package server

import (
	"net/http"
	"time"

	"asb-storefront/internal/handlers"
	"asb-storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Catalog  *handlers.CatalogHandler
	Upload   *handlers.UploadHandler
	Health   *handlers.HealthHandler
}

// RouterOptions configures the router middleware
type RouterOptions struct {
	AllowedOrigins  []string
	CheckoutLimiter *middleware.RateLimiter
	UploadsDir      string
	RequestTimeout  time.Duration
}

// NewRouter builds the storefront API
func NewRouter(h Handlers, opts RouterOptions, logger logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(opts.AllowedOrigins)))
	r.Use(middleware.SecurityHeadersMiddleware)

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", h.Health.Health)

	if opts.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))
	}

	r.Route("/api", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Patch("/items", h.Cart.UpdateItem)
			r.Delete("/items", h.Cart.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			if opts.CheckoutLimiter != nil {
				r.Use(middleware.RateLimit(opts.CheckoutLimiter))
			}
			r.Get("/", h.Checkout.Status)
			r.Post("/", h.Checkout.Submit)
			r.Post("/retry", h.Checkout.Retry)
		})

		r.Post("/upload", h.Upload.Upload)
		r.Patch("/purchases/{id}/status", h.Catalog.UpdatePurchaseStatus)

		r.Route("/{collection}", func(r chi.Router) {
			r.Get("/", h.Catalog.List)
			r.Post("/", h.Catalog.Create)
			r.Get("/{id}", h.Catalog.Get)
			r.Put("/{id}", h.Catalog.Update)
			r.Delete("/{id}", h.Catalog.Delete)
		})
	})

	return r
}
