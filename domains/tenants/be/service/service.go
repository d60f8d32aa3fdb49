// Package service implements the tenant lifecycle orchestrators: provisioning
// a tenant's full set of cloud resources across independent external systems,
// and best-effort decommissioning with a per-resource deletion ledger. No
// state is held in-process; every operation re-fetches the tenant record.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/naming"
)

// TenantRecord is the durable identity and provisioning status of one tenant.
type TenantRecord struct {
	TenantID    string  `json:"tenantId"`
	DisplayName *string `json:"displayName,omitempty"`
	// IoTHubDeployed flips to true when the asynchronous hub-provisioning
	// workflow completes. Set externally by the provisioning callback; this
	// layer only reads it.
	IoTHubDeployed bool   `json:"iotHubDeployed"`
	IoTHubName     string `json:"iotHubName"`
	DPSName        string `json:"dpsName"`
	SAJobName      string `json:"saJobName"`
}

// NewTenantRecord builds the unready record inserted at the start of Create,
// with all resource names derived up front.
func NewTenantRecord(tenantID string) TenantRecord {
	return TenantRecord{
		TenantID:   tenantID,
		IoTHubName: naming.IoTHubName(tenantID),
		DPSName:    naming.DPSName(tenantID),
		SAJobName:  naming.StreamAnalyticsJobName(tenantID),
	}
}

// Service provides tenant provisioning and decommission operations.
type Service struct {
	repo   Repository
	deps   Collaborators
	logger *zap.Logger
}

// New constructs a Service with required dependencies.
func New(repo Repository, deps Collaborators, logger *zap.Logger) *Service {
	if repo == nil {
		panic("tenant repository is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Service{repo: repo, deps: deps, logger: logger}
}

// Create provisions a new tenant. Steps run strictly in order and each is a
// hard failure point: when step N fails, steps 1..N-1 have already taken
// effect and are left in place for an operator to inspect. No rollback, no
// retries.
func (s *Service) Create(ctx context.Context, tenantID, userID string) (TenantRecord, error) {
	if tenantID == "" {
		return TenantRecord{}, fmt.Errorf("create tenant: tenant id is required: %w", errs.ErrPreconditionFailed)
	}

	rec := NewTenantRecord(tenantID)
	if err := s.repo.Insert(ctx, rec); err != nil {
		return TenantRecord{}, fmt.Errorf("create tenant %q: insert record: %w", tenantID, err)
	}

	if err := s.deps.Runbooks.CreateIoTHub(ctx, tenantID, rec.IoTHubName, rec.DPSName); err != nil {
		return TenantRecord{}, fmt.Errorf("create tenant %q: trigger iot hub provisioning: %w", tenantID, err)
	}

	if err := s.deps.Identity.AddTenantForUser(ctx, userID, tenantID, AdminRoles()); err != nil {
		return TenantRecord{}, fmt.Errorf("create tenant %q: grant admin access to user %q: %w", tenantID, userID, err)
	}

	if err := s.ensureLastUsedTenant(ctx, userID, tenantID); err != nil {
		return TenantRecord{}, fmt.Errorf("create tenant %q: %w", tenantID, err)
	}

	for _, col := range naming.Collections() {
		key := naming.CollectionKey(tenantID, col.Name)
		if err := s.deps.Config.SetValue(ctx, key, naming.CollectionID(col.Name, tenantID)); err != nil {
			return TenantRecord{}, fmt.Errorf("create tenant %q: register %s collection: %w", tenantID, col.Name, err)
		}
	}

	if err := s.deps.DeviceGroups.CreateDefaultDeviceGroup(ctx, tenantID); err != nil {
		return TenantRecord{}, fmt.Errorf("create tenant %q: create default device group: %w", tenantID, err)
	}

	s.logger.Info("tenant created",
		zap.String("tenant_id", tenantID),
		zap.String("iot_hub", rec.IoTHubName),
		zap.String("created_by", userID),
	)
	return rec, nil
}

// ensureLastUsedTenant sets the user's LastUsedTenant setting when it is not
// already pointing somewhere. Best-effort bookkeeping in intent, yet any
// failure still aborts the whole create call.
func (s *Service) ensureLastUsedTenant(ctx context.Context, userID, tenantID string) error {
	current, err := s.deps.Identity.GetSettingForUser(ctx, userID, LastUsedTenantSetting)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		current = ""
	case err != nil:
		return fmt.Errorf("read %s setting for user %q: %w", LastUsedTenantSetting, userID, err)
	}
	if current != "" {
		return nil
	}
	if err := s.deps.Identity.AddSettingForUser(ctx, userID, LastUsedTenantSetting, tenantID); err != nil {
		return fmt.Errorf("set %s setting for user %q: %w", LastUsedTenantSetting, userID, err)
	}
	return nil
}

// Get returns the tenant record or errs.ErrNotFound.
func (s *Service) Get(ctx context.Context, tenantID string) (TenantRecord, error) {
	return s.repo.Get(ctx, tenantID)
}

// IsReady reports whether the tenant's hub provisioning has completed. A
// missing record means not-ready, never an error.
func (s *Service) IsReady(ctx context.Context, tenantID string) (bool, error) {
	rec, err := s.repo.Get(ctx, tenantID)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check tenant %q readiness: %w", tenantID, err)
	}
	return rec.IoTHubDeployed, nil
}

// Update renames the tenant. Fetch-or-not-found, then insert-or-merge; two
// concurrent updates race with last-write-wins.
func (s *Service) Update(ctx context.Context, tenantID, displayName string) (TenantRecord, error) {
	rec, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return TenantRecord{}, fmt.Errorf("update tenant %q: %w", tenantID, err)
	}

	rec.DisplayName = &displayName
	updated, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return TenantRecord{}, fmt.Errorf("update tenant %q: upsert record: %w", tenantID, err)
	}
	return updated, nil
}
