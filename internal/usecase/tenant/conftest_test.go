package tenant

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// mockRegistry implements registry.
type mockRegistry struct {
	createFn func(ctx context.Context, rec domain.TenantRecord) error
	getFn    func(ctx context.Context, tenantID string) (domain.TenantRecord, error)
	deleteFn func(ctx context.Context, tenantID string) error
}

func (m *mockRegistry) Create(ctx context.Context, rec domain.TenantRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	return nil
}

func (m *mockRegistry) Get(ctx context.Context, tenantID string) (domain.TenantRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, tenantID)
	}
	return domain.TenantRecord{TenantID: tenantID, Status: domain.StatusActive}, nil
}

func (m *mockRegistry) Delete(ctx context.Context, tenantID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tenantID)
	}
	return nil
}

// mockSealer implements sealer.
type mockSealer struct {
	sealFn func(plaintext []byte) ([]byte, error)
}

func (m *mockSealer) Seal(plaintext []byte) ([]byte, error) {
	if m.sealFn != nil {
		return m.sealFn(plaintext)
	}
	return append([]byte("sealed:"), plaintext...), nil
}

// mockFleet implements fleet.
type mockFleet struct {
	spawnFn  func(ctx context.Context, tenantID string) error
	stopFn   func(ctx context.Context, tenantID string) error
	isLiveFn func(tenantID string) bool
}

func (m *mockFleet) Spawn(ctx context.Context, tenantID string) error {
	if m.spawnFn != nil {
		return m.spawnFn(ctx, tenantID)
	}
	return nil
}

func (m *mockFleet) Stop(ctx context.Context, tenantID string) error {
	if m.stopFn != nil {
		return m.stopFn(ctx, tenantID)
	}
	return nil
}

func (m *mockFleet) IsLive(tenantID string) bool {
	if m.isLiveFn != nil {
		return m.isLiveFn(tenantID)
	}
	return true
}

// mockCollections implements collections.
type mockCollections struct {
	deleteFn func(ctx context.Context, name string) error
	countFn  func(ctx context.Context, name string) (int64, error)
}

func (m *mockCollections) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func (m *mockCollections) Count(ctx context.Context, name string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, name)
	}
	return 0, nil
}

// mockWorkerValidator implements domain.WorkerCredentialValidator.
type mockWorkerValidator struct {
	validateFn func(ctx context.Context, token string) (string, error)
}

func (m *mockWorkerValidator) ValidateWorkerCredential(ctx context.Context, token string) (string, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, token)
	}
	return "support_bot", nil
}

// mockModelValidator implements domain.ModelCredentialValidator.
type mockModelValidator struct {
	validateFn func(ctx context.Context, key string) error
}

func (m *mockModelValidator) ValidateModelCredential(ctx context.Context, key string) error {
	if m.validateFn != nil {
		return m.validateFn(ctx, key)
	}
	return nil
}

type testDeps struct {
	registry    *mockRegistry
	sealer      *mockSealer
	fleet       *mockFleet
	collections *mockCollections
	worker      *mockWorkerValidator
	model       *mockModelValidator
}

func newTestService(t *testing.T) (*Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		registry:    &mockRegistry{},
		sealer:      &mockSealer{},
		fleet:       &mockFleet{},
		collections: &mockCollections{},
		worker:      &mockWorkerValidator{},
		model:       &mockModelValidator{},
	}
	svc := New(deps.registry, deps.sealer, deps.fleet, deps.collections,
		deps.worker, deps.model, zap.NewNop())
	return svc, deps
}
