package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snapit/storefront/internal/domain/product"
)

type productListResponse struct {
	Products    []productJSON `json:"products"`
	TotalPages  int64         `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Total       int64         `json:"total"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.pageParams(r)
	q := r.URL.Query()

	// Inactive products only show up when an admin asks for them.
	includeInactive := false
	if q.Get("includeInactive") == "true" {
		u := identityFrom(r.Context())
		includeInactive = u != nil && u.IsAdmin()
	}

	products, total, err := h.products.List(r.Context(), product.ListFilter{
		CategoryID:      q.Get("category"),
		Search:          q.Get("search"),
		IncludeInactive: includeInactive,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	out := make([]productJSON, len(products))
	for i := range products {
		out[i] = toProductJSON(&products[i])
	}
	writeJSON(w, http.StatusOK, productListResponse{
		Products:    out,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		Total:       total,
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductJSON(p))
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CategoryID  string  `json:"category"`
	Image       string  `json:"image"`
	Stock       int     `json:"stock"`
	Unit        string  `json:"unit"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (req *productRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "Product name is required"
	case req.Price <= 0:
		return "Price must be greater than 0"
	case req.Stock < 0:
		return "Stock cannot be negative"
	case !product.ValidUnit(req.Unit):
		return "Unknown unit: " + req.Unit
	case req.CategoryID == "":
		return "Category is required"
	}
	return ""
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	now := time.Now().UTC()
	p := &product.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		CategoryID:  req.CategoryID,
		Image:       req.Image,
		Stock:       req.Stock,
		Unit:        req.Unit,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductJSON(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Price = decimal.NewFromFloat(req.Price)
	p.CategoryID = req.CategoryID
	p.Image = req.Image
	p.Stock = req.Stock
	p.Unit = req.Unit
	if req.IsActive != nil {
		p.Active = *req.IsActive
	}
	p.UpdatedAt = time.Now().UTC()

	if err := h.products.Update(r.Context(), p); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductJSON(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.products.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Product not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Product removed")
}
