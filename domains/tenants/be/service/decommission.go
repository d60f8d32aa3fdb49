package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/naming"
)

// Ledger labels for the fixed teardown steps. Collection and container
// entries are labeled "collection:<name>" and "container:<name>".
const (
	LedgerTenantRecord    = "tenant-record"
	LedgerUserMemberships = "user-memberships"
	LedgerLastUsedTenant  = "last-used-tenant"
	LedgerIoTHub          = "iot-hub"
	LedgerAlertingJob     = "alerting-job"
)

// DeletionLedger records the outcome of every independent teardown step:
// true on success or already-absent, false on any other failure. It is never
// rolled back; a false entry is the operator's signal to reconcile by hand.
type DeletionLedger map[string]bool

// CollectionLabel returns the ledger key for a catalog collection.
func CollectionLabel(name string) string { return "collection:" + name }

// ContainerLabel returns the ledger key for a blob container.
func ContainerLabel(name string) string { return "container:" + name }

// Delete tears down every resource class associated with a tenant. Apart
// from the readiness precondition, steps are independent and best-effort: a
// failing step is logged and recorded false, and the remaining steps still
// run. Calling Delete again on the same tenant is safe; everything already
// absent is recorded true.
//
// With ensureFullyDeployed, a record that exists but has not finished
// provisioning fails fast with errs.ErrPreconditionFailed, because runbook
// steps may still be racing and could resurrect resources mid-delete.
func (s *Service) Delete(ctx context.Context, tenantID, userID string, ensureFullyDeployed bool) (DeletionLedger, error) {
	logger := s.logger.With(zap.String("tenant_id", tenantID))
	ledger := DeletionLedger{}

	rec, err := s.repo.Get(ctx, tenantID)
	recordExists := true
	switch {
	case errors.Is(err, errs.ErrNotFound):
		recordExists = false
		ledger[LedgerTenantRecord] = true
	case err != nil:
		return nil, fmt.Errorf("delete tenant %q: fetch record: %w", tenantID, err)
	default:
		if !rec.IoTHubDeployed && ensureFullyDeployed {
			return nil, fmt.Errorf("delete tenant %q: provisioning has not completed: %w", tenantID, errs.ErrPreconditionFailed)
		}
	}
	if !recordExists {
		// Resource names are deterministic, so teardown triggers still work
		// without the record.
		rec = NewTenantRecord(tenantID)
	}

	if recordExists {
		ledger[LedgerTenantRecord] = s.attempt(logger, "delete tenant record", func() error {
			return s.repo.Delete(ctx, tenantID)
		})
	}

	ledger[LedgerUserMemberships] = s.attempt(logger, "delete user memberships", func() error {
		return s.deps.Identity.DeleteTenantForAllUsers(ctx, tenantID)
	})

	ledger[LedgerLastUsedTenant] = s.attempt(logger, "clear last-used-tenant setting", func() error {
		return s.clearLastUsedTenant(ctx, userID, tenantID)
	})

	ledger[LedgerIoTHub] = s.attempt(logger, "trigger iot hub teardown", func() error {
		return s.deps.Runbooks.DeleteIoTHub(ctx, tenantID, rec.IoTHubName, rec.DPSName)
	})

	ledger[LedgerAlertingJob] = s.attempt(logger, "trigger alerting teardown", func() error {
		return s.deps.Runbooks.DeleteAlerting(ctx, tenantID, rec.SAJobName)
	})

	for _, col := range naming.Collections() {
		ledger[CollectionLabel(col.Name)] = s.deleteCollection(ctx, logger, tenantID, col)
	}

	for _, suffix := range naming.ContainerSuffixes() {
		name := naming.ContainerName(tenantID, suffix)
		ledger[ContainerLabel(name)] = s.attempt(logger, "delete blob container "+name, func() error {
			return s.deps.Blobs.DeleteContainer(ctx, name)
		})
	}

	logger.Info("tenant decommission finished", zap.Any("ledger", ledger))
	return ledger, nil
}

// deleteCollection removes one catalog collection and its App Configuration
// registration. A missing key means the collection was already deleted. The
// key delete after a successful collection delete is unguarded: its failure
// is logged but does not flip the entry back to false, the primary resource
// is already gone.
func (s *Service) deleteCollection(ctx context.Context, logger *zap.Logger, tenantID string, col naming.Collection) bool {
	key := naming.CollectionKey(tenantID, col.Name)

	collectionID, err := s.deps.Config.GetValue(ctx, key)
	if errors.Is(err, errs.ErrNotFound) {
		return true
	}
	if err != nil {
		logger.Error("decommission step failed",
			zap.String("step", "look up "+col.Name+" collection id"),
			zap.Error(err),
		)
		return false
	}

	if err := s.deps.Collections.DeleteCollection(ctx, col.Database, collectionID); err != nil && !errors.Is(err, errs.ErrNotFound) {
		logger.Error("decommission step failed",
			zap.String("step", "delete collection "+collectionID),
			zap.Error(err),
		)
		return false
	}

	if err := s.deps.Config.DeleteKey(ctx, key); err != nil && !errors.Is(err, errs.ErrNotFound) {
		logger.Warn("delete collection config key", zap.String("key", key), zap.Error(err))
	}
	return true
}

// clearLastUsedTenant empties the user's LastUsedTenant setting when it
// points at this tenant. Read-then-write, not atomic; a race with a
// concurrent create or settings update is accepted.
func (s *Service) clearLastUsedTenant(ctx context.Context, userID, tenantID string) error {
	current, err := s.deps.Identity.GetSettingForUser(ctx, userID, LastUsedTenantSetting)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current != tenantID {
		return nil
	}
	return s.deps.Identity.UpdateSettingForUser(ctx, userID, LastUsedTenantSetting, "")
}

// attempt runs one independent teardown step. Already-absent counts as done;
// anything else is logged and reported false without stopping the caller.
func (s *Service) attempt(logger *zap.Logger, step string, fn func() error) bool {
	err := fn()
	if err == nil || errors.Is(err, errs.ErrNotFound) {
		return true
	}
	logger.Error("decommission step failed", zap.String("step", step), zap.Error(err))
	return false
}
