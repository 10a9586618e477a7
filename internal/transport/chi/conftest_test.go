package chi

import (
	"context"
	"net/http"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/domain/batch"
	"github.com/kailas-cloud/ragfleet/internal/usecase/query"
	tenantuc "github.com/kailas-cloud/ragfleet/internal/usecase/tenant"
	"github.com/kailas-cloud/ragfleet/internal/worker"
)

// mockTenants implements TenantService.
type mockTenants struct {
	registerFn func(ctx context.Context, tenantID, workerCred, modelCred string) (domain.TenantRecord, error)
	deleteFn   func(ctx context.Context, tenantID string) error
	statusFn   func(ctx context.Context, tenantID string) (tenantuc.Status, error)
}

func (m *mockTenants) Register(ctx context.Context, tenantID, workerCred, modelCred string) (domain.TenantRecord, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, tenantID, workerCred, modelCred)
	}
	return domain.TenantRecord{TenantID: tenantID, Status: domain.StatusActive}, nil
}

func (m *mockTenants) Delete(ctx context.Context, tenantID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, tenantID)
	}
	return nil
}

func (m *mockTenants) Status(ctx context.Context, tenantID string) (tenantuc.Status, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, tenantID)
	}
	return tenantuc.Status{Record: domain.TenantRecord{TenantID: tenantID, Status: domain.StatusActive}}, nil
}

// mockFleet implements Fleet.
type mockFleet struct {
	stopFn    func(ctx context.Context, tenantID string) error
	restartFn func(ctx context.Context, tenantID string) error
}

func (m *mockFleet) Stop(ctx context.Context, tenantID string) error {
	if m.stopFn != nil {
		return m.stopFn(ctx, tenantID)
	}
	return nil
}

func (m *mockFleet) Restart(ctx context.Context, tenantID string) error {
	if m.restartFn != nil {
		return m.restartFn(ctx, tenantID)
	}
	return nil
}

// mockWorker implements TenantWorker.
type mockWorker struct {
	ingestFn func(ctx context.Context, archive []byte) (batch.Result, error)
	queryFn  func(ctx context.Context, question string) (query.Answer, error)
	clearFn  func(ctx context.Context) error
	statsFn  func(ctx context.Context) (worker.Stats, error)
}

func (m *mockWorker) Ingest(ctx context.Context, archive []byte) (batch.Result, error) {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, archive)
	}
	return batch.Result{}, nil
}

func (m *mockWorker) Query(ctx context.Context, question string) (query.Answer, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, question)
	}
	return query.Answer{}, nil
}

func (m *mockWorker) Clear(ctx context.Context) error {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

func (m *mockWorker) Stats(ctx context.Context) (worker.Stats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return worker.Stats{}, nil
}

// mockDirectory implements Directory.
type mockDirectory struct {
	workers map[string]*mockWorker
}

func (m *mockDirectory) Lookup(tenantID string) (TenantWorker, bool) {
	w, ok := m.workers[tenantID]
	return w, ok
}

// mockPinger implements Pinger.
type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

type testDeps struct {
	tenants   *mockTenants
	fleet     *mockFleet
	directory *mockDirectory
	pinger    *mockPinger
}

func newTestRouter(t *testing.T) (http.Handler, *testDeps) {
	t.Helper()
	deps := &testDeps{
		tenants:   &mockTenants{},
		fleet:     &mockFleet{},
		directory: &mockDirectory{workers: make(map[string]*mockWorker)},
		pinger:    &mockPinger{},
	}

	server := NewServer(deps.tenants, deps.fleet, deps.directory, deps.pinger, 1<<20, zap.NewNop())
	r := chirouter.NewRouter()
	server.Mount(r)
	return r, deps
}
