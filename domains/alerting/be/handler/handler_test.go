package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meridianiot/meridian/domains/alerting/be/service"
	tenants "github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/problems"
)

type stubTenants struct {
	rec tenants.TenantRecord
	ok  bool
}

func (s *stubTenants) Get(ctx context.Context, tenantID string) (tenants.TenantRecord, error) {
	if !s.ok {
		return tenants.TenantRecord{}, errs.ErrNotFound
	}
	return s.rec, nil
}

type stubSA struct {
	job jobResult
}

type jobResult struct {
	status service.JobStatus
	err    error
}

func (s *stubSA) GetJob(ctx context.Context, name string) (service.JobStatus, error) {
	return s.job.status, s.job.err
}

func (s *stubSA) Start(ctx context.Context, name string) error { return nil }

func (s *stubSA) Stop(ctx context.Context, name string) error { return nil }

func (s *stubSA) JobIsActive(job service.JobStatus) bool { return job.State == "Running" }

type stubConfig struct{}

func (stubConfig) GetValue(ctx context.Context, key string) (string, error) {
	return "", errs.ErrNotFound
}

func (stubConfig) SetValue(ctx context.Context, key, value string) error { return nil }

type stubCollections struct{}

func (stubCollections) EnsureCollection(ctx context.Context, database, collectionID, partitionKeyPath string) error {
	return nil
}

type stubRunbooks struct{}

func (stubRunbooks) CreateAlerting(ctx context.Context, tenantID, jobName, hubName string) error {
	return nil
}

func (stubRunbooks) DeleteAlerting(ctx context.Context, tenantID, jobName string) error { return nil }

func newRouter(t *testing.T, tenantStore *stubTenants, sa *stubSA) chi.Router {
	t.Helper()

	svc := service.New(service.Dependencies{
		Tenants:     tenantStore,
		SA:          sa,
		Config:      stubConfig{},
		Collections: stubCollections{},
		Runbooks:    stubRunbooks{},
	}, zaptest.NewLogger(t))

	r := chi.NewRouter()
	New(svc, zaptest.NewLogger(t)).Routes(r)
	return r
}

func deployedTenant() *stubTenants {
	rec := tenants.NewTenantRecord("abcdef1234567890")
	rec.IoTHubDeployed = true
	return &stubTenants{rec: rec, ok: true}
}

func do(r chi.Router, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAddReturnsAcceptedWithCreatingJob(t *testing.T) {
	t.Parallel()

	r := newRouter(t, deployedTenant(), &stubSA{job: jobResult{err: errs.ErrNotFound}})

	rr := do(r, http.MethodPost, "/tenants/abcdef1234567890/alerting")
	require.Equal(t, http.StatusAccepted, rr.Code)

	var model service.JobModel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &model))
	require.Equal(t, "sa-abcdef12", model.JobName)
	require.Equal(t, "Creating", model.JobState)
}

func TestOperationsOnUnknownTenantFailWithPrecondition(t *testing.T) {
	t.Parallel()

	r := newRouter(t, &stubTenants{}, &stubSA{job: jobResult{err: errs.ErrNotFound}})

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodPost, "/tenants/unknown/alerting"},
		{http.MethodDelete, "/tenants/unknown/alerting"},
		{http.MethodGet, "/tenants/unknown/alerting"},
		{http.MethodPost, "/tenants/unknown/alerting/start"},
		{http.MethodPost, "/tenants/unknown/alerting/stop"},
	} {
		rr := do(r, tc.method, tc.target)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code, "%s %s", tc.method, tc.target)

		var p problems.ProblemDetails
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
		require.Equal(t, problems.TypePrecondition, p.Type)
	}
}

func TestAddExistingJobReturnsConflict(t *testing.T) {
	t.Parallel()

	sa := &stubSA{job: jobResult{status: service.JobStatus{Name: "sa-abcdef12", State: "Running"}}}
	r := newRouter(t, deployedTenant(), sa)

	rr := do(r, http.MethodPost, "/tenants/abcdef1234567890/alerting")
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestGetReportsJobState(t *testing.T) {
	t.Parallel()

	sa := &stubSA{job: jobResult{status: service.JobStatus{Name: "sa-abcdef12", State: "Running"}}}
	r := newRouter(t, deployedTenant(), sa)

	rr := do(r, http.MethodGet, "/tenants/abcdef1234567890/alerting")
	require.Equal(t, http.StatusOK, rr.Code)

	var model service.JobModel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &model))
	require.True(t, model.IsActive)
	require.Equal(t, "Running", model.JobState)
}
