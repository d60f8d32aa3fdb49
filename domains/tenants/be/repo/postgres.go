package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
)

const tenantsDDL = `
CREATE TABLE IF NOT EXISTS tenants (
	tenant_id        TEXT PRIMARY KEY,
	display_name     TEXT,
	iot_hub_deployed BOOLEAN NOT NULL DEFAULT FALSE,
	iot_hub_name     TEXT NOT NULL,
	dps_name         TEXT NOT NULL,
	sa_job_name      TEXT NOT NULL
)`

// uniqueViolation is the Postgres error code for duplicate primary keys.
const uniqueViolation = "23505"

// PostgresRepository stores tenant records in Postgres. Writes carry no
// concurrency token; Upsert is last-write-wins like the table backend.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository ensures the tenants table exists and returns the
// repository.
func NewPostgresRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresRepository, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if _, err := pool.Exec(ctx, tenantsDDL); err != nil {
		return nil, fmt.Errorf("ensure tenants table: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, tenantID string) (service.TenantRecord, error) {
	var rec service.TenantRecord
	err := r.pool.QueryRow(ctx, `
		SELECT tenant_id, display_name, iot_hub_deployed, iot_hub_name, dps_name, sa_job_name
		FROM tenants WHERE tenant_id = $1`, tenantID,
	).Scan(&rec.TenantID, &rec.DisplayName, &rec.IoTHubDeployed, &rec.IoTHubName, &rec.DPSName, &rec.SAJobName)
	if errors.Is(err, pgx.ErrNoRows) {
		return service.TenantRecord{}, errs.ErrNotFound
	}
	if err != nil {
		return service.TenantRecord{}, fmt.Errorf("select tenant: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, rec service.TenantRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenants (tenant_id, display_name, iot_hub_deployed, iot_hub_name, dps_name, sa_job_name)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.TenantID, rec.DisplayName, rec.IoTHubDeployed, rec.IoTHubName, rec.DPSName, rec.SAJobName)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errs.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec service.TenantRecord) (service.TenantRecord, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenants (tenant_id, display_name, iot_hub_deployed, iot_hub_name, dps_name, sa_job_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id) DO UPDATE SET
			display_name     = EXCLUDED.display_name,
			iot_hub_deployed = EXCLUDED.iot_hub_deployed,
			iot_hub_name     = EXCLUDED.iot_hub_name,
			dps_name         = EXCLUDED.dps_name,
			sa_job_name      = EXCLUDED.sa_job_name`,
		rec.TenantID, rec.DisplayName, rec.IoTHubDeployed, rec.IoTHubName, rec.DPSName, rec.SAJobName)
	if err != nil {
		return service.TenantRecord{}, fmt.Errorf("upsert tenant: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, tenantID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenants WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

var _ service.Repository = (*PostgresRepository)(nil)
