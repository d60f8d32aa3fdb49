package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
)

// DefaultTableName is the Table Storage table holding tenant records.
const DefaultTableName = "tenant"

// TableRepository stores tenant records in Azure Table Storage. Partition
// key is the first character of the tenant id, row key the full id. Upsert
// uses insert-or-merge, so concurrent writers race with last-write-wins.
type TableRepository struct {
	client *aztables.Client
}

// NewTableRepository builds a repository over an existing table client.
func NewTableRepository(client *aztables.Client) *TableRepository {
	if client == nil {
		panic("aztables client is required")
	}
	return &TableRepository{client: client}
}

// NewTableRepositoryFromConnectionString connects to the storage account and
// targets the given table (DefaultTableName when empty).
func NewTableRepositoryFromConnectionString(connString, table string) (*TableRepository, error) {
	if table == "" {
		table = DefaultTableName
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connString, nil)
	if err != nil {
		return nil, fmt.Errorf("connect table storage: %w", err)
	}
	return NewTableRepository(svc.NewClient(table)), nil
}

func partitionKey(tenantID string) string {
	if tenantID == "" {
		return ""
	}
	return tenantID[:1]
}

func toEntity(rec service.TenantRecord) ([]byte, error) {
	props := map[string]any{
		"IotHubDeployed": rec.IoTHubDeployed,
		"IotHubName":     rec.IoTHubName,
		"DpsName":        rec.DPSName,
		"SaJobName":      rec.SAJobName,
	}
	if rec.DisplayName != nil {
		props["TenantName"] = *rec.DisplayName
	}
	entity := aztables.EDMEntity{
		Entity: aztables.Entity{
			PartitionKey: partitionKey(rec.TenantID),
			RowKey:       rec.TenantID,
		},
		Properties: props,
	}
	return json.Marshal(entity)
}

func fromEntity(raw []byte) (service.TenantRecord, error) {
	var entity aztables.EDMEntity
	if err := json.Unmarshal(raw, &entity); err != nil {
		return service.TenantRecord{}, fmt.Errorf("decode tenant entity: %w", err)
	}

	rec := service.TenantRecord{TenantID: entity.RowKey}
	if v, ok := entity.Properties["IotHubDeployed"].(bool); ok {
		rec.IoTHubDeployed = v
	}
	if v, ok := entity.Properties["IotHubName"].(string); ok {
		rec.IoTHubName = v
	}
	if v, ok := entity.Properties["DpsName"].(string); ok {
		rec.DPSName = v
	}
	if v, ok := entity.Properties["SaJobName"].(string); ok {
		rec.SAJobName = v
	}
	if v, ok := entity.Properties["TenantName"].(string); ok {
		rec.DisplayName = &v
	}
	return rec, nil
}

func translateTableError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return errs.ErrNotFound
		case http.StatusConflict:
			return errs.ErrConflict
		}
	}
	return err
}

func (r *TableRepository) Get(ctx context.Context, tenantID string) (service.TenantRecord, error) {
	resp, err := r.client.GetEntity(ctx, partitionKey(tenantID), tenantID, nil)
	if err != nil {
		return service.TenantRecord{}, translateTableError(err)
	}
	return fromEntity(resp.Value)
}

func (r *TableRepository) Insert(ctx context.Context, rec service.TenantRecord) error {
	raw, err := toEntity(rec)
	if err != nil {
		return err
	}
	if _, err := r.client.AddEntity(ctx, raw, nil); err != nil {
		return translateTableError(err)
	}
	return nil
}

func (r *TableRepository) Upsert(ctx context.Context, rec service.TenantRecord) (service.TenantRecord, error) {
	raw, err := toEntity(rec)
	if err != nil {
		return service.TenantRecord{}, err
	}
	opts := &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeMerge}
	if _, err := r.client.UpsertEntity(ctx, raw, opts); err != nil {
		return service.TenantRecord{}, translateTableError(err)
	}
	return rec, nil
}

func (r *TableRepository) Delete(ctx context.Context, tenantID string) error {
	if _, err := r.client.DeleteEntity(ctx, partitionKey(tenantID), tenantID, nil); err != nil {
		return translateTableError(err)
	}
	return nil
}

var _ service.Repository = (*TableRepository)(nil)
