package repo

import (
	"context"
	"sync"

	"github.com/meridianiot/meridian/domains/tenants/be/service"
	"github.com/meridianiot/meridian/platform/go/errs"
)

// MemoryRepository is a simple in-memory record store suitable for tests and
// early development.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]service.TenantRecord
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]service.TenantRecord)}
}

func (r *MemoryRepository) Get(ctx context.Context, tenantID string) (service.TenantRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[tenantID]
	if !ok {
		return service.TenantRecord{}, errs.ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, rec service.TenantRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.TenantID]; exists {
		return errs.ErrConflict
	}
	r.byID[rec.TenantID] = rec
	return nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, rec service.TenantRecord) (service.TenantRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[rec.TenantID] = rec
	return rec, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, tenantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[tenantID]; !ok {
		return errs.ErrNotFound
	}
	delete(r.byID, tenantID)
	return nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
