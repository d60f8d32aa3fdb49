package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/problems"
)

// UserHeader identifies the calling user. Authentication itself happens
// upstream at the gateway; this layer trusts the forwarded header.
const UserHeader = "X-User-Id"

// Handler wires the tenant lifecycle service to the HTTP API.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the tenant endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/tenants", h.create)
	r.Get("/tenants/{tenantID}", h.get)
	r.Patch("/tenants/{tenantID}", h.update)
	r.Delete("/tenants/{tenantID}", h.delete)
}

type createRequest struct {
	TenantID string `json:"tenantId,omitempty"`
}

type updateRequest struct {
	DisplayName string `json:"displayName"`
}

type tenantResponse struct {
	service.TenantRecord
	Ready bool `json:"ready"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		problems.Write(w, problems.New(problems.TypeValidation, "Missing user", http.StatusBadRequest, UserHeader+" header is required"))
		return
	}

	var req createRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			problems.Write(w, problems.New(problems.TypeValidation, "Invalid request body", http.StatusBadRequest, err.Error()))
			return
		}
	}
	if req.TenantID == "" {
		req.TenantID = uuid.NewString()
	}

	rec, err := h.svc.Create(r.Context(), req.TenantID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tenantResponse{TenantRecord: rec, Ready: rec.IoTHubDeployed})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	rec, err := h.svc.Get(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenantResponse{TenantRecord: rec, Ready: rec.IoTHubDeployed})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problems.Write(w, problems.New(problems.TypeValidation, "Invalid request body", http.StatusBadRequest, err.Error()))
		return
	}

	rec, err := h.svc.Update(r.Context(), tenantID, req.DisplayName)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenantResponse{TenantRecord: rec, Ready: rec.IoTHubDeployed})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	userID := r.Header.Get(UserHeader)

	ensure := true
	if raw := r.URL.Query().Get("ensureFullyDeployed"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			problems.Write(w, problems.New(problems.TypeValidation, "Invalid query", http.StatusBadRequest, "ensureFullyDeployed must be a boolean"))
			return
		}
		ensure = parsed
	}

	ledger, err := h.svc.Delete(r.Context(), tenantID, userID, ensure)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Partial failures surface inside the ledger, not as an HTTP error.
	writeJSON(w, http.StatusOK, ledger)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		problems.Write(w, problems.New(problems.TypeNotFound, "Not found", http.StatusNotFound, err.Error()))
	case errors.Is(err, errs.ErrConflict):
		problems.Write(w, problems.New(problems.TypeConflict, "Conflict", http.StatusConflict, err.Error()))
	case errors.Is(err, errs.ErrPreconditionFailed):
		problems.Write(w, problems.New(problems.TypePrecondition, "Precondition failed", http.StatusUnprocessableEntity, err.Error()))
	default:
		h.logger.Error("tenant operation failed", zap.Error(err))
		problems.Write(w, problems.New(problems.TypeInternal, "Internal error", http.StatusInternalServerError, ""))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
