// Package handler exposes the storefront's REST surface and maps domain
// errors to HTTP status codes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/snapit/storefront/internal/domain/category"
	"github.com/snapit/storefront/internal/domain/feedback"
	"github.com/snapit/storefront/internal/domain/order"
	"github.com/snapit/storefront/internal/domain/product"
	"github.com/snapit/storefront/internal/domain/user"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// DefaultPageSize is used when a listing request omits "limit".
	DefaultPageSize int
	// MaxPageSize caps the "limit" query parameter.
	MaxPageSize int
}

// Handler carries the domain dependencies for all HTTP endpoints.
type Handler struct {
	cfg        Config
	auth       *user.AuthService
	users      user.Repository
	categories category.Repository
	products   product.Repository
	orders     *order.Service
	feedback   feedback.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	auth *user.AuthService,
	users user.Repository,
	categories category.Repository,
	products product.Repository,
	orders *order.Service,
	fb feedback.Repository,
) *Handler {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &Handler{
		cfg:        cfg,
		auth:       auth,
		users:      users,
		categories: categories,
		products:   products,
		orders:     orders,
		feedback:   fb,
	}
}

// Routes assembles the API router. Route groups mirror the access model:
// public catalog reads, authenticated customer operations, and admin-only
// management endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.healthMessage)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})

	r.Route("/products", func(r chi.Router) {
		r.With(h.MaybeAuthenticate).Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate, h.RequireAdmin)
			r.Post("/", h.createProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
		})
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate, h.RequireAdmin)
			r.Post("/", h.createCategory)
			r.Put("/{id}", h.updateCategory)
			r.Delete("/{id}", h.deleteCategory)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/", h.createOrder)
		r.Get("/my-orders", h.myOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/status", h.updateOrderStatus)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/", h.listOrders)
			r.Put("/{id}/payment-status", h.updatePaymentStatus)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.Authenticate, h.RequireAdmin)
		r.Get("/", h.listUsers)
		r.Put("/{id}/block", h.blockUser)
	})

	r.Route("/feedback", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/", h.createFeedback)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/", h.listFeedback)
			r.Put("/{id}/status", h.updateFeedbackStatus)
		})
	})

	return r
}

// healthMessage is the legacy application-level health route; the probe
// endpoints live outside the API prefix.
func (h *Handler) healthMessage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "SnapIt API is running!"})
}

// writeJSON encodes v with the given status. Encoding errors past the status
// line cannot be recovered; they only occur when the client is gone.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeMessage writes the `{"message": ...}` envelope used for all errors.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeServerError logs the underlying cause and responds with a generic 500.
// Infrastructure failures are the only retryable class, so their details stay
// out of the response body.
func writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, "Server error")
}
