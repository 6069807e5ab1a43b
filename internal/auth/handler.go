package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// Handler wires authentication endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	auditor *audit.Service
	mw      Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, auditor *audit.Service, mw Middleware) *Handler {
	return &Handler{logger: logger, service: service, auditor: auditor, mw: mw}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/me", h.me)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	token, principal, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:    audit.ActionLogin,
		Resource:  "auth",
		IPAddress: r.RemoteAddr,
	})
	httpx.JSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	httpx.JSON(w, http.StatusOK, principal)
}
