package imports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bistrohq/bistroboard/internal/audit"
	"github.com/bistrohq/bistroboard/internal/platform/httpx"
	"github.com/bistrohq/bistroboard/internal/shared"
)

// PermissionGuard matches rbac.Middleware.RequireAny.
type PermissionGuard func(perms ...string) func(http.Handler) http.Handler

// Enqueuer submits an import run to the background queue.
type Enqueuer func(ctx context.Context, jobID int64) error

// Handler wires the import endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	enqueue Enqueuer
	auditor *audit.Service
	guard   PermissionGuard
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, enqueue Enqueuer, auditor *audit.Service, guard PermissionGuard) *Handler {
	return &Handler{logger: logger, service: service, enqueue: enqueue, auditor: auditor, guard: guard}
}

// MountRoutes registers routes under an authenticated group.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/imports", func(r chi.Router) {
		r.With(h.guard(shared.PermImportsRun)).Post("/", h.create)
		r.With(h.guard(shared.PermImportsRun)).Post("/{id}/run", h.run)
		r.With(h.guard(shared.PermImportsRun)).Get("/", h.list)
		r.With(h.guard(shared.PermImportsRun)).Get("/{id}", h.get)
		r.With(h.guard(shared.PermImportsRun)).Get("/{id}/errors", h.listErrors)
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file field is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "could not read upload")
		return
	}

	in := CreateJobInput{
		Name:       r.FormValue("name"),
		FileName:   header.Filename,
		Content:    content,
		TargetType: r.FormValue("target_type"),
	}
	if raw := r.FormValue("store_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "store_id must be an integer")
			return
		}
		in.StoreID = &id
	}

	principal := shared.PrincipalFromContext(r.Context())
	job, err := h.service.CreateJob(r.Context(), principal, in)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionCreate,
		Resource:   "import_job",
		ResourceID: strconv.FormatInt(job.ID, 10),
		Detail:     map[string]any{"target_type": job.TargetType, "file_name": job.FileName},
	})
	httpx.JSON(w, http.StatusCreated, job)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	job, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	switch job.Status {
	case StatusRunning:
		h.respondErr(w, ErrJobRunning)
		return
	case StatusSuccess, StatusPartialFail:
		h.respondErr(w, ErrJobFinished)
		return
	}
	if err := h.enqueue(r.Context(), id); err != nil {
		h.logger.Error("enqueue import run", slog.Int64("job_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	principal := shared.PrincipalFromContext(r.Context())
	h.auditor.Record(r.Context(), principal, audit.Entry{
		Action:     audit.ActionRunImport,
		Resource:   "import_job",
		ResourceID: strconv.FormatInt(id, 10),
	})
	httpx.JSON(w, http.StatusAccepted, map[string]any{"job_id": id, "status": StatusPending})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := ListFilters{
		TargetType: r.URL.Query().Get("target_type"),
		Status:     r.URL.Query().Get("status"),
	}
	var err error
	if f.CreatedBy, err = httpx.QueryInt64Ptr(r, "created_by"); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.Page, err = httpx.QueryIntDefault(r, "page", 1); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if f.PerPage, err = httpx.QueryIntDefault(r, "per_page", 20); err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, page, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list import jobs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "pagination": page})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	job, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) listErrors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid id")
		return
	}
	page, err := httpx.QueryIntDefault(r, "page", 1)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	perPage, err := httpx.QueryIntDefault(r, "per_page", 50)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, pagination, err := h.service.Errors(r.Context(), id, page, perPage)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "pagination": pagination})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnsupportedFile), errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrStoreRequired), errors.Is(err, ErrBadTarget):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrJobRunning), errors.Is(err, ErrJobFinished):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
