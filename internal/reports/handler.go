package reports

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Handler wires the summary report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   PermissionGuard
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, guard PermissionGuard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers routes under an authenticated group. Each
// report has a JSON endpoint and an /export sibling returning xlsx.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard(shared.PermReportsView)).Get("/daily", h.daily)
	r.With(h.guard(shared.PermReportsExport)).Get("/daily/export", h.dailyExport)
	r.With(h.guard(shared.PermReportsView)).Get("/monthly", h.monthly)
	r.With(h.guard(shared.PermReportsExport)).Get("/monthly/export", h.monthlyExport)
	r.With(h.guard(shared.PermReportsView)).Get("/stores", h.stores)
	r.With(h.guard(shared.PermReportsExport)).Get("/stores/export", h.storesExport)
	r.With(h.guard(shared.PermReportsView)).Get("/expense-breakdown", h.breakdown)
	r.With(h.guard(shared.PermReportsExport)).Get("/expense-breakdown/export", h.breakdownExport)
}

func xlsxHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)
}

func (h *Handler) dailySummary(r *http.Request) (Summary[DailyRow], error) {
	from, err := httpx.QueryDate(r, "date_from")
	if err != nil {
		return Summary[DailyRow]{}, err
	}
	to, err := httpx.QueryDate(r, "date_to")
	if err != nil {
		return Summary[DailyRow]{}, err
	}
	storeID, err := httpx.QueryInt64Ptr(r, "store_id")
	if err != nil {
		return Summary[DailyRow]{}, err
	}
	return h.service.DailySummary(r.Context(), shared.PrincipalFromContext(r.Context()), from, to, storeID)
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	s, err := h.dailySummary(r)
	if err != nil {
		h.logger.Error("daily report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) dailyExport(w http.ResponseWriter, r *http.Request) {
	s, err := h.dailySummary(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	xlsxHeaders(w, "daily-summary.xlsx")
	if err := ExportDaily(w, s); err != nil {
		h.logger.Error("daily export", slog.Any("error", err))
	}
}

func (h *Handler) monthlySummary(r *http.Request) (Summary[MonthlyRow], error) {
	year, err := httpx.QueryIntDefault(r, "year", 0)
	if err != nil || year == 0 {
		return Summary[MonthlyRow]{}, httpx.ErrValidation
	}
	storeID, err := httpx.QueryInt64Ptr(r, "store_id")
	if err != nil {
		return Summary[MonthlyRow]{}, err
	}
	return h.service.MonthlySummary(r.Context(), shared.PrincipalFromContext(r.Context()), year, storeID)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	s, err := h.monthlySummary(r)
	if err != nil {
		h.logger.Error("monthly report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) monthlyExport(w http.ResponseWriter, r *http.Request) {
	s, err := h.monthlySummary(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	xlsxHeaders(w, "monthly-summary.xlsx")
	if err := ExportMonthly(w, s); err != nil {
		h.logger.Error("monthly export", slog.Any("error", err))
	}
}

func (h *Handler) storePerformance(r *http.Request) (Summary[StoreRow], error) {
	from, err := httpx.QueryDate(r, "date_from")
	if err != nil {
		return Summary[StoreRow]{}, err
	}
	to, err := httpx.QueryDate(r, "date_to")
	if err != nil {
		return Summary[StoreRow]{}, err
	}
	return h.service.StorePerformance(r.Context(), shared.PrincipalFromContext(r.Context()), from, to)
}

func (h *Handler) stores(w http.ResponseWriter, r *http.Request) {
	s, err := h.storePerformance(r)
	if err != nil {
		h.logger.Error("store performance report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) storesExport(w http.ResponseWriter, r *http.Request) {
	s, err := h.storePerformance(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	xlsxHeaders(w, "store-performance.xlsx")
	if err := ExportStores(w, s); err != nil {
		h.logger.Error("store performance export", slog.Any("error", err))
	}
}

func (h *Handler) expenseBreakdown(r *http.Request) (Summary[BucketRow], error) {
	from, err := httpx.QueryDate(r, "date_from")
	if err != nil {
		return Summary[BucketRow]{}, err
	}
	to, err := httpx.QueryDate(r, "date_to")
	if err != nil {
		return Summary[BucketRow]{}, err
	}
	storeID, err := httpx.QueryInt64Ptr(r, "store_id")
	if err != nil {
		return Summary[BucketRow]{}, err
	}
	return h.service.ExpenseBreakdown(r.Context(), shared.PrincipalFromContext(r.Context()), from, to, storeID)
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	s, err := h.expenseBreakdown(r)
	if err != nil {
		h.logger.Error("expense breakdown report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) breakdownExport(w http.ResponseWriter, r *http.Request) {
	s, err := h.expenseBreakdown(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	xlsxHeaders(w, "expense-breakdown.xlsx")
	if err := ExportBreakdown(w, s); err != nil {
		h.logger.Error("expense breakdown export", slog.Any("error", err))
	}
}
