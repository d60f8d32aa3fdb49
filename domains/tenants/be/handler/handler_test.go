package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meridianiot/meridian/domains/tenants/be/repo"
	"github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/problems"
)

// Stubs for the external systems; each call succeeds so the handler tests
// exercise HTTP mapping, not orchestration details.

type okIdentity struct {
	settings map[string]string
}

func (i *okIdentity) AddTenantForUser(ctx context.Context, userID, tenantID string, roles []string) error {
	return nil
}

func (i *okIdentity) DeleteTenantForAllUsers(ctx context.Context, tenantID string) error {
	return nil
}

func (i *okIdentity) GetSettingForUser(ctx context.Context, userID, key string) (string, error) {
	v, ok := i.settings[userID+"/"+key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (i *okIdentity) AddSettingForUser(ctx context.Context, userID, key, value string) error {
	i.settings[userID+"/"+key] = value
	return nil
}

func (i *okIdentity) UpdateSettingForUser(ctx context.Context, userID, key, value string) error {
	i.settings[userID+"/"+key] = value
	return nil
}

type okRunbooks struct{}

func (okRunbooks) CreateIoTHub(ctx context.Context, tenantID, hubName, dpsName string) error {
	return nil
}

func (okRunbooks) DeleteIoTHub(ctx context.Context, tenantID, hubName, dpsName string) error {
	return nil
}

func (okRunbooks) CreateAlerting(ctx context.Context, tenantID, jobName, hubName string) error {
	return nil
}

func (okRunbooks) DeleteAlerting(ctx context.Context, tenantID, jobName string) error { return nil }

type okConfig struct {
	values map[string]string
}

func (c *okConfig) GetValue(ctx context.Context, key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

func (c *okConfig) SetValue(ctx context.Context, key, value string) error {
	c.values[key] = value
	return nil
}

func (c *okConfig) DeleteKey(ctx context.Context, key string) error {
	delete(c.values, key)
	return nil
}

type okCollections struct{}

func (okCollections) EnsureCollection(ctx context.Context, database, collectionID, partitionKeyPath string) error {
	return nil
}

func (okCollections) DeleteCollection(ctx context.Context, database, collectionID string) error {
	return nil
}

type okBlobs struct{}

func (okBlobs) DeleteContainer(ctx context.Context, name string) error { return nil }

type okDeviceGroups struct{}

func (okDeviceGroups) CreateDefaultDeviceGroup(ctx context.Context, tenantID string) error {
	return nil
}

type env struct {
	repo   *repo.MemoryRepository
	router chi.Router
}

func newEnv(t *testing.T) *env {
	t.Helper()

	memRepo := repo.NewMemoryRepository()
	svc := service.New(memRepo, service.Collaborators{
		Identity:     &okIdentity{settings: make(map[string]string)},
		Runbooks:     okRunbooks{},
		Config:       &okConfig{values: make(map[string]string)},
		Collections:  okCollections{},
		Blobs:        okBlobs{},
		DeviceGroups: okDeviceGroups{},
	}, zaptest.NewLogger(t))

	r := chi.NewRouter()
	New(svc, zaptest.NewLogger(t)).Routes(r)
	return &env{repo: memRepo, router: r}
}

func (e *env) do(method, target, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) problems.ProblemDetails {
	t.Helper()
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	var p problems.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	return p
}

func TestCreateTenantReturnsDerivedNames(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/tenants", "user-1", `{"tenantId":"abcdef1234567890"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		service.TenantRecord
		Ready bool `json:"ready"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "abcdef1234567890", resp.TenantID)
	require.Equal(t, "iothub-abcdef12", resp.IoTHubName)
	require.Equal(t, "dps-abcdef12", resp.DPSName)
	require.Equal(t, "sa-abcdef12", resp.SAJobName)
	require.False(t, resp.Ready)
}

func TestCreateTenantGeneratesIDWhenOmitted(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/tenants", "user-1", "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp service.TenantRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.TenantID)
	require.True(t, strings.HasPrefix(resp.IoTHubName, "iothub-"))
}

func TestCreateTenantRequiresUserHeader(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/tenants", "", `{"tenantId":"abcdef1234567890"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	p := decodeProblem(t, rr)
	require.Equal(t, problems.TypeValidation, p.Type)
}

func TestCreateDuplicateTenantReturnsConflict(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/tenants", "user-1", `{"tenantId":"abcdef1234567890"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(http.MethodPost, "/tenants", "user-1", `{"tenantId":"abcdef1234567890"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	p := decodeProblem(t, rr)
	require.Equal(t, problems.TypeConflict, p.Type)
}

func TestGetUnknownTenantReturnsNotFound(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodGet, "/tenants/missing", "user-1", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	p := decodeProblem(t, rr)
	require.Equal(t, problems.TypeNotFound, p.Type)
}

func TestUpdateRenamesTenant(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/tenants", "user-1", `{"tenantId":"abcdef1234567890"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(http.MethodPatch, "/tenants/abcdef1234567890", "user-1", `{"displayName":"Acme Sensors"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp service.TenantRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.DisplayName)
	require.Equal(t, "Acme Sensors", *resp.DisplayName)
}

func TestDeleteHalfProvisionedTenantFailsByDefault(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/tenants", "user-1", `{"tenantId":"abcdef1234567890"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(http.MethodDelete, "/tenants/abcdef1234567890", "user-1", "")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	p := decodeProblem(t, rr)
	require.Equal(t, problems.TypePrecondition, p.Type)
}

func TestDeleteForcedReturnsLedger(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/tenants", "user-1", `{"tenantId":"abcdef1234567890"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(http.MethodDelete, "/tenants/abcdef1234567890?ensureFullyDeployed=false", "user-1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var ledger map[string]bool
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ledger))
	require.NotEmpty(t, ledger)
	for label, ok := range ledger {
		require.True(t, ok, "ledger entry %s", label)
	}
}

func TestDeleteRejectsMalformedQuery(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	rr := e.do(http.MethodDelete, "/tenants/abcdef1234567890?ensureFullyDeployed=maybe", "user-1", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	p := decodeProblem(t, rr)
	require.Equal(t, problems.TypeValidation, p.Type)
}
