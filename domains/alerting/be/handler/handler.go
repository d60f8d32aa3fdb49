package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/meridianiot/meridian/domains/alerting/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/problems"
)

// Handler wires the alerting lifecycle service to the HTTP API.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("alerting service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the alerting endpoints under a tenant.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/tenants/{tenantID}/alerting", func(r chi.Router) {
		r.Post("/", h.op(h.svc.Add, http.StatusAccepted))
		r.Delete("/", h.op(h.svc.Remove, http.StatusAccepted))
		r.Get("/", h.op(h.svc.Get, http.StatusOK))
		r.Post("/start", h.op(h.svc.Start, http.StatusOK))
		r.Post("/stop", h.op(h.svc.Stop, http.StatusOK))
	})
}

func (h *Handler) op(fn func(context.Context, string) (service.JobModel, error), status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		model, err := fn(r.Context(), tenantID)
		if err != nil {
			h.writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(model)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrPreconditionFailed):
		problems.Write(w, problems.New(problems.TypePrecondition, "Precondition failed", http.StatusUnprocessableEntity, err.Error()))
	case errors.Is(err, errs.ErrConflict):
		problems.Write(w, problems.New(problems.TypeConflict, "Conflict", http.StatusConflict, err.Error()))
	case errors.Is(err, errs.ErrNotFound):
		problems.Write(w, problems.New(problems.TypeNotFound, "Not found", http.StatusNotFound, err.Error()))
	default:
		h.logger.Error("alerting operation failed", zap.Error(err))
		problems.Write(w, problems.New(problems.TypeInternal, "Internal error", http.StatusInternalServerError, ""))
	}
}
