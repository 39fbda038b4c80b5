// Package httpapi exposes the account operations over a small JSON HTTP
// surface. It owns nothing beyond request decoding, auth middleware and the
// response envelope; all behavior lives in the account service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/hanlinkhaing/accountd/account"
)

// Handler serves the customer endpoints.
type Handler struct {
	svc    *account.Service
	tokens *account.TokenIssuer
	logger *zap.Logger
}

// New creates a Handler.
func New(svc *account.Service, tokens *account.TokenIssuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, tokens: tokens, logger: logger}
}

// Routes returns the mux with every customer endpoint registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/customer/register", h.register)
	mux.HandleFunc("POST /api/customer/login", h.login)
	mux.HandleFunc("POST /api/customer/checkUserExists", h.checkUserExists)
	mux.Handle("GET /api/customer/refreshToken", h.requireRefresh(http.HandlerFunc(h.refreshToken)))
	mux.Handle("PUT /api/customer/profile", h.requireAccess(http.HandlerFunc(h.updateProfile)))
	return mux
}

type principalContextKey struct{}

func principalFrom(ctx context.Context) (account.AuthCustomer, bool) {
	p, ok := ctx.Value(principalContextKey{}).(account.AuthCustomer)
	return p, ok
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

func (h *Handler) requireAccess(next http.Handler) http.Handler {
	return h.requireToken(next, h.tokens.ParseAccess)
}

func (h *Handler) requireRefresh(next http.Handler) http.Handler {
	return h.requireToken(next, h.tokens.ParseRefresh)
}

func (h *Handler) requireToken(next http.Handler, parse func(string) (account.AuthCustomer, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			h.writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		principal, err := parse(token)
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if !h.decode(w, r, &in) {
		return
	}
	customer, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, customer.Redacted())
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in account.LoginInput
	if !h.decode(w, r, &in) {
		return
	}
	tokens, err := h.svc.Login(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, tokens)
}

func (h *Handler) checkUserExists(w http.ResponseWriter, r *http.Request) {
	var in account.CheckInput
	if !h.decode(w, r, &in) {
		return
	}
	existed, err := h.svc.Exists(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, map[string]bool{"isExisted": existed})
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	token, err := h.svc.RefreshToken(r.Context(), principal.Username)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, map[string]string{"token": token})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in account.UpdateInput
	if !h.decode(w, r, &in) {
		return
	}
	if principal.Username != in.TxtUser {
		h.writeError(w, http.StatusUnauthorized, "you cannot update another person's data")
		return
	}

	customer, err := h.svc.UpdateProfile(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeData(w, customer.Redacted())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) writeData(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, envelope{Status: "success", Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	h.writeJSON(w, code, envelope{Status: "error", Message: msg})
}

// writeServiceError maps service errors onto status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		h.writeError(w, http.StatusBadRequest, verrs.Error())
	case errors.Is(err, account.ErrUsernameTaken):
		h.writeError(w, http.StatusBadRequest, "username is already taken by another account")
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrInvalidToken):
		h.writeError(w, http.StatusUnauthorized, "invalid username or password")
	default:
		h.logger.Error("request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write response", zap.Error(err))
	}
}
