package service

import "context"

// LastUsedTenantSetting is the identity-gateway user setting holding the
// tenant a user last worked in.
const LastUsedTenantSetting = "LastUsedTenant"

// AdminRoles is the role set granted to the user who creates a tenant.
func AdminRoles() []string { return []string{"admin"} }

// Repository is the durable tenant record store. Implementations live in the
// repo package (in-memory, Azure Tables, Postgres).
type Repository interface {
	// Get returns the record or errs.ErrNotFound.
	Get(ctx context.Context, tenantID string) (TenantRecord, error)
	// Insert fails with errs.ErrConflict when the tenant id already exists.
	Insert(ctx context.Context, rec TenantRecord) error
	// Upsert uses insert-or-merge semantics; concurrent writers race with
	// last-write-wins, no concurrency token is enforced at this layer.
	Upsert(ctx context.Context, rec TenantRecord) (TenantRecord, error)
	// Delete returns errs.ErrNotFound when the record is already gone.
	Delete(ctx context.Context, tenantID string) error
}

// IdentityGateway is the user/tenant-membership collaborator.
type IdentityGateway interface {
	AddTenantForUser(ctx context.Context, userID, tenantID string, roles []string) error
	DeleteTenantForAllUsers(ctx context.Context, tenantID string) error
	// GetSettingForUser returns errs.ErrNotFound when the setting is unset.
	GetSettingForUser(ctx context.Context, userID, key string) (string, error)
	AddSettingForUser(ctx context.Context, userID, key, value string) error
	UpdateSettingForUser(ctx context.Context, userID, key, value string) error
}

// RunbookTrigger submits asynchronous provisioning/deprovisioning workflows.
// Errors report trigger submission failure only, never workflow completion.
type RunbookTrigger interface {
	CreateIoTHub(ctx context.Context, tenantID, hubName, dpsName string) error
	DeleteIoTHub(ctx context.Context, tenantID, hubName, dpsName string) error
	CreateAlerting(ctx context.Context, tenantID, jobName, hubName string) error
	DeleteAlerting(ctx context.Context, tenantID, jobName string) error
}

// ConfigStore is the key/value configuration collaborator (App Configuration).
type ConfigStore interface {
	// GetValue returns errs.ErrNotFound for a missing key.
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteKey(ctx context.Context, key string) error
}

// CollectionStore manages tenant document collections.
type CollectionStore interface {
	EnsureCollection(ctx context.Context, database, collectionID, partitionKeyPath string) error
	// DeleteCollection returns errs.ErrNotFound when the collection is
	// already gone; callers treat that as success.
	DeleteCollection(ctx context.Context, database, collectionID string) error
}

// BlobStore deletes tenant blob containers.
type BlobStore interface {
	// DeleteContainer returns errs.ErrNotFound when the container is
	// already gone.
	DeleteContainer(ctx context.Context, name string) error
}

// DeviceGroups is the config-service collaborator creating the default
// device group for a new tenant.
type DeviceGroups interface {
	CreateDefaultDeviceGroup(ctx context.Context, tenantID string) error
}

// Collaborators bundles the external systems a tenant's lifecycle touches.
type Collaborators struct {
	Identity     IdentityGateway
	Runbooks     RunbookTrigger
	Config       ConfigStore
	Collections  CollectionStore
	Blobs        BlobStore
	DeviceGroups DeviceGroups
}
