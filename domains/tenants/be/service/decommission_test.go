package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridianiot/meridian/platform/go/errs"
	"github.com/meridianiot/meridian/platform/go/naming"
)

// allLedgerLabels is every entry a full teardown must produce.
func allLedgerLabels(tenantID string) []string {
	labels := []string{
		LedgerTenantRecord,
		LedgerUserMemberships,
		LedgerLastUsedTenant,
		LedgerIoTHub,
		LedgerAlertingJob,
	}
	for _, col := range naming.Collections() {
		labels = append(labels, CollectionLabel(col.Name))
	}
	for _, suffix := range naming.ContainerSuffixes() {
		labels = append(labels, ContainerLabel(naming.ContainerName(tenantID, suffix)))
	}
	return labels
}

func provisionDeployedTenant(t *testing.T, f *fixture) {
	t.Helper()

	_, err := f.svc.Create(context.Background(), testTenant, testUser)
	require.NoError(t, err)

	rec, err := f.repo.Get(context.Background(), testTenant)
	require.NoError(t, err)
	rec.IoTHubDeployed = true
	_, err = f.repo.Upsert(context.Background(), rec)
	require.NoError(t, err)
}

func TestDeleteRefusesHalfProvisionedTenant(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), testTenant, testUser)
	require.NoError(t, err)
	f.runbooks.calls = nil

	_, err = f.svc.Delete(context.Background(), testTenant, testUser, true)
	require.ErrorIs(t, err, errs.ErrPreconditionFailed)

	// Fails fast: no store was touched.
	_, getErr := f.repo.Get(context.Background(), testTenant)
	require.NoError(t, getErr)
	require.Equal(t, 0, f.identity.deleteAllCalls)
	require.Empty(t, f.runbooks.calls)
	require.Empty(t, f.blobs.deleted)
	require.Len(t, f.config.values, 5)
}

func TestDeleteHalfProvisionedTenantWhenForced(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), testTenant, testUser)
	require.NoError(t, err)

	ledger, err := f.svc.Delete(context.Background(), testTenant, testUser, false)
	require.NoError(t, err)
	for _, label := range allLedgerLabels(testTenant) {
		require.True(t, ledger[label], "ledger entry %s", label)
	}
}

func TestDeleteProducesCompleteLedger(t *testing.T) {
	f := newFixture()
	provisionDeployedTenant(t, f)

	ledger, err := f.svc.Delete(context.Background(), testTenant, testUser, true)
	require.NoError(t, err)

	labels := allLedgerLabels(testTenant)
	require.Len(t, ledger, len(labels))
	for _, label := range labels {
		require.True(t, ledger[label], "ledger entry %s", label)
	}

	// Record, config keys and the user's last-used pointer are gone.
	_, err = f.repo.Get(context.Background(), testTenant)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Empty(t, f.config.values)
	require.Equal(t, "", f.identity.settings[settingKey(testUser, LastUsedTenantSetting)])
	require.Equal(t, 1, f.runbooks.count("delete-iot-hub"))
	require.Equal(t, 1, f.runbooks.count("delete-alerting"))
}

func TestDeleteTwiceIsIdempotent(t *testing.T) {
	f := newFixture()
	provisionDeployedTenant(t, f)

	_, err := f.svc.Delete(context.Background(), testTenant, testUser, true)
	require.NoError(t, err)

	ledger, err := f.svc.Delete(context.Background(), testTenant, testUser, true)
	require.NoError(t, err)

	// Everything is already absent; every entry reports true.
	require.Len(t, ledger, len(allLedgerLabels(testTenant)))
	for label, ok := range ledger {
		require.True(t, ok, "ledger entry %s", label)
	}
}

func TestDeletePartialFailureKeepsRemainingSteps(t *testing.T) {
	f := newFixture()
	provisionDeployedTenant(t, f)

	failing := naming.CollectionID("lifecycle", testTenant)
	f.collections.deleteFailOn = failing

	ledger, err := f.svc.Delete(context.Background(), testTenant, testUser, true)
	require.NoError(t, err)

	require.False(t, ledger[CollectionLabel("lifecycle")])
	for _, label := range allLedgerLabels(testTenant) {
		if label == CollectionLabel("lifecycle") {
			continue
		}
		require.True(t, ledger[label], "ledger entry %s", label)
	}

	// The failed collection keeps its config key for a later retry.
	require.Contains(t, f.config.values, naming.CollectionKey(testTenant, "lifecycle"))

	// Blob containers are still deleted after the collection failure.
	require.ElementsMatch(t, []string{
		testTenant,
		testTenant + "-iot-file-upload",
	}, f.blobs.deleted)
}

func TestDeleteKeyCleanupFailureDoesNotFlipLedger(t *testing.T) {
	f := newFixture()
	provisionDeployedTenant(t, f)

	f.config.deleteFailOn = naming.CollectionKey(testTenant, "telemetry")

	ledger, err := f.svc.Delete(context.Background(), testTenant, testUser, true)
	require.NoError(t, err)

	// The collection itself was removed; the orphaned key is only logged.
	require.True(t, ledger[CollectionLabel("telemetry")])
	require.Contains(t, f.collections.deleted, naming.CollectionID("telemetry", testTenant))
}

func TestDeleteLeavesOtherUsersLastUsedTenant(t *testing.T) {
	f := newFixture()
	provisionDeployedTenant(t, f)

	f.identity.settings[settingKey(testUser, LastUsedTenantSetting)] = "another-tenant"

	ledger, err := f.svc.Delete(context.Background(), testTenant, testUser, true)
	require.NoError(t, err)

	require.True(t, ledger[LedgerLastUsedTenant])
	require.Equal(t, "another-tenant", f.identity.settings[settingKey(testUser, LastUsedTenantSetting)])
	require.Empty(t, f.identity.updateCalls)
}
