// Package service manages the per-tenant streaming-alert job lifecycle. All
// operations are gated on tenant readiness: the tenant record must exist and
// its hub provisioning must have completed before the external alerting
// systems are touched. The gate is checked once per call, not re-checked
// mid-operation; a tenant flipping to not-ready afterwards is an accepted
// race.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	tenants "github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/naming"
)

// Job states synthesized for the asynchronous create/delete triggers. Real
// states come from the control plane and are not polled synchronously.
const (
	stateCreating = "Creating"
	stateDeleting = "Deleting"
)

// JobModel projects the alerting job's external state. A job exists iff both
// JobName and JobState are non-empty; the model deliberately does not
// distinguish "not yet created" from "unknown" beyond that check.
type JobModel struct {
	TenantID string `json:"tenantId"`
	JobName  string `json:"jobName,omitempty"`
	JobState string `json:"jobState,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Exists reports whether the job is present in the external system.
func (m JobModel) Exists() bool { return m.JobName != "" && m.JobState != "" }

// JobStatus is the control plane's view of a streaming job.
type JobStatus struct {
	Name  string
	State string
}

// TenantStore reads tenant records; satisfied by the tenants service.
type TenantStore interface {
	Get(ctx context.Context, tenantID string) (tenants.TenantRecord, error)
}

// StreamAnalytics is the streaming-job control plane.
type StreamAnalytics interface {
	// GetJob returns errs.ErrNotFound when the job does not exist.
	GetJob(ctx context.Context, name string) (JobStatus, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	JobIsActive(job JobStatus) bool
}

// ConfigStore registers the alarms collection id.
type ConfigStore interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

// CollectionStore ensures the alarms collection backing the job.
type CollectionStore interface {
	EnsureCollection(ctx context.Context, database, collectionID, partitionKeyPath string) error
}

// RunbookTrigger submits the asynchronous job create/delete workflows.
type RunbookTrigger interface {
	CreateAlerting(ctx context.Context, tenantID, jobName, hubName string) error
	DeleteAlerting(ctx context.Context, tenantID, jobName string) error
}

// Dependencies bundles the collaborators the alerting lifecycle touches.
type Dependencies struct {
	Tenants     TenantStore
	SA          StreamAnalytics
	Config      ConfigStore
	Collections CollectionStore
	Runbooks    RunbookTrigger
}

// Service provides the alerting job lifecycle operations.
type Service struct {
	deps   Dependencies
	logger *zap.Logger
}

// New constructs a Service with required dependencies.
func New(deps Dependencies, logger *zap.Logger) *Service {
	if deps.Tenants == nil {
		panic("tenant store is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Service{deps: deps, logger: logger}
}

// readyTenant is the shared readiness gate. A missing record and a
// present-but-unready record both fail with errs.ErrPreconditionFailed,
// carrying distinct messages.
func (s *Service) readyTenant(ctx context.Context, tenantID string) (tenants.TenantRecord, error) {
	rec, err := s.deps.Tenants.Get(ctx, tenantID)
	if errors.Is(err, errs.ErrNotFound) {
		return tenants.TenantRecord{}, fmt.Errorf("alerting: tenant %q does not exist: %w", tenantID, errs.ErrPreconditionFailed)
	}
	if err != nil {
		return tenants.TenantRecord{}, fmt.Errorf("alerting: fetch tenant %q: %w", tenantID, err)
	}
	if !rec.IoTHubDeployed {
		return tenants.TenantRecord{}, fmt.Errorf("alerting: tenant %q is not fully deployed: %w", tenantID, errs.ErrPreconditionFailed)
	}
	return rec, nil
}

// Add provisions the tenant's alerting job: registers and ensures the alarms
// collection, refuses when a job already exists (at-most-one per tenant,
// enforced here rather than by the external system), then triggers the
// asynchronous creation workflow and returns a "Creating" placeholder.
func (s *Service) Add(ctx context.Context, tenantID string) (JobModel, error) {
	rec, err := s.readyTenant(ctx, tenantID)
	if err != nil {
		return JobModel{}, err
	}

	alarms := naming.AlarmsCollection()
	key := naming.CollectionKey(tenantID, alarms.Name)
	collectionID, err := s.deps.Config.GetValue(ctx, key)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		collectionID = naming.CollectionID(alarms.Name, tenantID)
		if err := s.deps.Config.SetValue(ctx, key, collectionID); err != nil {
			return JobModel{}, fmt.Errorf("alerting: register alarms collection for tenant %q: %w", tenantID, err)
		}
	case err != nil:
		return JobModel{}, fmt.Errorf("alerting: look up alarms collection for tenant %q: %w", tenantID, err)
	}

	if err := s.deps.Collections.EnsureCollection(ctx, alarms.Database, collectionID, alarms.PartitionKeyPath); err != nil {
		return JobModel{}, fmt.Errorf("alerting: ensure alarms collection %q: %w", collectionID, err)
	}

	current, err := s.Get(ctx, tenantID)
	if err != nil {
		return JobModel{}, err
	}
	if current.Exists() {
		return JobModel{}, fmt.Errorf("alerting job %q already exists for tenant %q: %w", rec.SAJobName, tenantID, errs.ErrConflict)
	}

	if err := s.deps.Runbooks.CreateAlerting(ctx, tenantID, rec.SAJobName, rec.IoTHubName); err != nil {
		return JobModel{}, fmt.Errorf("alerting: trigger job creation for tenant %q: %w", tenantID, err)
	}

	s.logger.Info("alerting job creation triggered",
		zap.String("tenant_id", tenantID),
		zap.String("job", rec.SAJobName),
	)
	return JobModel{TenantID: tenantID, JobName: rec.SAJobName, JobState: stateCreating}, nil
}

// Remove triggers job deletion unconditionally; deleting a job that does not
// exist is delegated to the external system's idempotence.
func (s *Service) Remove(ctx context.Context, tenantID string) (JobModel, error) {
	rec, err := s.readyTenant(ctx, tenantID)
	if err != nil {
		return JobModel{}, err
	}

	if err := s.deps.Runbooks.DeleteAlerting(ctx, tenantID, rec.SAJobName); err != nil {
		return JobModel{}, fmt.Errorf("alerting: trigger job deletion for tenant %q: %w", tenantID, err)
	}

	s.logger.Info("alerting job deletion triggered",
		zap.String("tenant_id", tenantID),
		zap.String("job", rec.SAJobName),
	)
	return JobModel{TenantID: tenantID, JobName: rec.SAJobName, JobState: stateDeleting}, nil
}

// Get projects the job's current state. A not-found job is a legitimately
// absent model (IsActive false, no name), not an error; anything else is
// wrapped and returned.
func (s *Service) Get(ctx context.Context, tenantID string) (JobModel, error) {
	rec, err := s.readyTenant(ctx, tenantID)
	if err != nil {
		return JobModel{}, err
	}

	job, err := s.deps.SA.GetJob(ctx, rec.SAJobName)
	if errors.Is(err, errs.ErrNotFound) {
		return JobModel{TenantID: tenantID}, nil
	}
	if err != nil {
		return JobModel{}, fmt.Errorf("alerting: fetch job %q: %w", rec.SAJobName, err)
	}

	return JobModel{
		TenantID: tenantID,
		JobName:  job.Name,
		JobState: job.State,
		IsActive: s.deps.SA.JobIsActive(job),
	}, nil
}

// Start starts an existing job; a job that was never created cannot be
// started.
func (s *Service) Start(ctx context.Context, tenantID string) (JobModel, error) {
	return s.transition(ctx, tenantID, "start", s.deps.SA.Start)
}

// Stop stops an existing job.
func (s *Service) Stop(ctx context.Context, tenantID string) (JobModel, error) {
	return s.transition(ctx, tenantID, "stop", s.deps.SA.Stop)
}

func (s *Service) transition(ctx context.Context, tenantID, verb string, op func(context.Context, string) error) (JobModel, error) {
	current, err := s.Get(ctx, tenantID)
	if err != nil {
		return JobModel{}, err
	}
	if !current.Exists() {
		return JobModel{}, fmt.Errorf("alerting: cannot %s a job that does not exist for tenant %q: %w", verb, tenantID, errs.ErrPreconditionFailed)
	}

	if err := op(ctx, current.JobName); err != nil {
		return JobModel{}, fmt.Errorf("alerting: %s job %q: %w", verb, current.JobName, err)
	}
	return current, nil
}
