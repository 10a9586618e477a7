package tenant

import (
	"context"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// registry is the use case's view of the tenant store.
type registry interface {
	Create(ctx context.Context, rec domain.TenantRecord) error
	Get(ctx context.Context, tenantID string) (domain.TenantRecord, error)
	Delete(ctx context.Context, tenantID string) error
}

// sealer encrypts credentials for storage.
type sealer interface {
	Seal(plaintext []byte) ([]byte, error)
}

// fleet is the use case's view of the worker supervisor.
type fleet interface {
	Spawn(ctx context.Context, tenantID string) error
	Stop(ctx context.Context, tenantID string) error
	IsLive(tenantID string) bool
}

// collections deletes a tenant's vector collection on teardown and counts
// its chunks for status reporting.
type collections interface {
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context, name string) (int64, error)
}
