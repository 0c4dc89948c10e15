package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/snapit/storefront/internal/domain/category"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	out := make([]categoryJSON, len(categories))
	for i := range categories {
		out[i] = toCategoryJSON(&categories[i])
	}
	writeJSON(w, http.StatusOK, out)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "Category name is required")
		return
	}

	now := time.Now().UTC()
	c := &category.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.categories.Create(r.Context(), c); err != nil {
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryJSON(c))
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "Category name is required")
		return
	}

	c, err := h.categories.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Category not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	c.Name = req.Name
	c.Description = req.Description
	c.Image = req.Image
	c.UpdatedAt = time.Now().UTC()

	if err := h.categories.Update(r.Context(), c); err != nil {
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryJSON(c))
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	err := h.categories.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Category not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Category removed")
}
