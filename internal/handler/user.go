package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/snapit/storefront/internal/domain/user"
)

type userListResponse struct {
	Users       []userJSON `json:"users"`
	TotalPages  int64      `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
	Total       int64      `json:"total"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.pageParams(r)

	users, total, err := h.users.List(r.Context(), page, pageSize)
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	out := make([]userJSON, len(users))
	for i := range users {
		out[i] = toUserJSON(&users[i])
	}
	writeJSON(w, http.StatusOK, userListResponse{
		Users:       out,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
		Total:       total,
	})
}

type blockUserRequest struct {
	IsBlocked bool `json:"isBlocked"`
}

func (h *Handler) blockUser(w http.ResponseWriter, r *http.Request) {
	var req blockUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	if caller := identityFrom(r.Context()); caller != nil && caller.ID == id {
		writeMessage(w, http.StatusBadRequest, "Cannot block your own account")
		return
	}

	u, err := h.users.SetBlocked(r.Context(), id, req.IsBlocked)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserJSON(u))
}
