package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/snapit/storefront/internal/domain/user"
)

// identityKey is the context key for the authenticated user.
type identityKey struct{}

// identityFrom extracts the authenticated user from the context, or nil.
func identityFrom(ctx context.Context) *user.User {
	u, _ := ctx.Value(identityKey{}).(*user.User)
	return u
}

// Authenticate verifies the bearer token, loads the account, and rejects
// missing/invalid tokens (401) and blocked accounts (403) before any domain
// code runs.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		u, err := h.auth.VerifyToken(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, user.ErrBlocked):
				writeMessage(w, http.StatusForbidden, "Account is blocked")
			case errors.Is(err, user.ErrInvalidToken):
				writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			default:
				writeServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MaybeAuthenticate loads the account when a valid bearer token is present
// but lets anonymous requests through. Used on public routes whose responses
// widen for admins.
func (h *Handler) MaybeAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if ok && token != "" {
			if u, err := h.auth.VerifyToken(r.Context(), token); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey{}, u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects non-admin callers. Must run after Authenticate.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := identityFrom(r.Context())
		if u == nil || !u.IsAdmin() {
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || !strings.Contains(req.Email, "@") || len(req.Password) < 6 {
		writeMessage(w, http.StatusBadRequest, "Name, valid email, and a password of at least 6 characters are required")
		return
	}

	u, err := h.auth.Register(r.Context(), user.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			writeMessage(w, http.StatusConflict, "Email already registered")
			return
		}
		writeServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserJSON(u))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrBadCredentials):
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, user.ErrBlocked):
			writeMessage(w, http.StatusForbidden, "Account is blocked")
		default:
			writeServerError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserJSON(u)})
}
