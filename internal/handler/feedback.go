package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/snapit/storefront/internal/domain/feedback"
)

type createFeedbackRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
	Rating  int    `json:"rating"`
}

func (h *Handler) createFeedback(w http.ResponseWriter, r *http.Request) {
	var req createFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeMessage(w, http.StatusBadRequest, "Message is required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeMessage(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	u := identityFrom(r.Context())
	now := time.Now().UTC()
	f := &feedback.Feedback{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Subject:   req.Subject,
		Message:   req.Message,
		Rating:    req.Rating,
		Status:    feedback.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.feedback.Create(r.Context(), f); err != nil {
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFeedbackJSON(f))
}

type feedbackListResponse struct {
	Feedback    []feedbackJSON `json:"feedback"`
	TotalPages  int64          `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Total       int64          `json:"total"`
}

func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.pageParams(r)

	status := r.URL.Query().Get("status")
	if status != "" && !feedback.ValidStatus(status) {
		writeMessage(w, http.StatusBadRequest, "Unknown feedback status")
		return
	}

	list, total, err := h.feedback.List(r.Context(), feedback.ListFilter{
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	out := make([]feedbackJSON, len(list))
	for i := range list {
		out[i] = toFeedbackJSON(&list[i])
	}
	writeJSON(w, http.StatusOK, feedbackListResponse{
		Feedback:    out,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		Total:       total,
	})
}

type updateFeedbackStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateFeedbackStatus(w http.ResponseWriter, r *http.Request) {
	var req updateFeedbackStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !feedback.ValidStatus(req.Status) {
		writeMessage(w, http.StatusBadRequest, "Unknown feedback status")
		return
	}

	f, err := h.feedback.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		if errors.Is(err, feedback.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Feedback not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFeedbackJSON(f))
}
