package analysis

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler wires the analytical endpoints.
type Handler struct {
	logger  *slog.Logger
	cvp     *CVPService
	abc     *ABCService
	compare *CompareService
	guard   PermissionGuard
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, cvp *CVPService, abc *ABCService, compare *CompareService, guard PermissionGuard) *Handler {
	return &Handler{logger: logger, cvp: cvp, abc: abc, compare: compare, guard: guard}
}

// MountRoutes registers routes under an authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard(shared.PermReportsView)).Get("/cvp", h.cvpAnalyze)
	r.With(h.guard(shared.PermReportsView)).Post("/cvp/simulate", h.cvpSimulate)
	r.With(h.guard(shared.PermReportsView)).Get("/abc", h.abcAnalyze)
	r.With(h.guard(shared.PermReportsView)).Get("/compare", h.comparePeriods)
}

type rangeParams struct {
	from, to time.Time
	storeID  *int64
}

func parseRange(r *http.Request) (rangeParams, error) {
	var p rangeParams
	var err error
	if p.from, err = httpx.QueryDate(r, "date_from"); err != nil {
		return p, err
	}
	if p.to, err = httpx.QueryDate(r, "date_to"); err != nil {
		return p, err
	}
	if p.storeID, err = httpx.QueryInt64Ptr(r, "store_id"); err != nil {
		return p, err
	}
	return p, nil
}

func (h *Handler) cvpAnalyze(w http.ResponseWriter, r *http.Request) {
	p, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.cvp.Analyze(r.Context(), shared.PrincipalFromContext(r.Context()), p.from, p.to, p.storeID)
	if err != nil {
		h.logger.Error("cvp analysis", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) cvpSimulate(w http.ResponseWriter, r *http.Request) {
	p, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in SimulationInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	res, err := h.cvp.Simulate(r.Context(), shared.PrincipalFromContext(r.Context()), p.from, p.to, p.storeID, in)
	if err != nil {
		h.logger.Error("cvp simulation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) abcAnalyze(w http.ResponseWriter, r *http.Request) {
	p, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.abc.Analyze(r.Context(), shared.PrincipalFromContext(r.Context()), p.from, p.to, p.storeID)
	if err != nil {
		h.logger.Error("abc analysis", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) comparePeriods(w http.ResponseWriter, r *http.Request) {
	p, err := parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	mode := r.URL.Query().Get("mode")

	if mode == ModeCustom {
		baseFrom, err := httpx.QueryDate(r, "base_from")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		baseTo, err := httpx.QueryDate(r, "base_to")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		res, err := h.compare.CompareCustom(r.Context(), principal, p.from, p.to, baseFrom, baseTo, p.storeID)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, res)
		return
	}

	res, err := h.compare.Compare(r.Context(), principal, mode, p.from, p.to, p.storeID)
	if err != nil {
		h.logger.Error("period comparison", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
