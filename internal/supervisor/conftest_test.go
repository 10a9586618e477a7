package supervisor

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/worker"
)

// mockRegistry implements registry with call tracking safe for concurrent use.
type mockRegistry struct {
	mu       sync.Mutex
	getFn    func(ctx context.Context, tenantID string) (domain.TenantRecord, error)
	listFn   func(ctx context.Context) ([]domain.TenantRecord, error)
	statuses map[string]domain.Status
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{statuses: make(map[string]domain.Status)}
}

func (m *mockRegistry) Get(ctx context.Context, tenantID string) (domain.TenantRecord, error) {
	if m.getFn != nil {
		return m.getFn(ctx, tenantID)
	}
	return testRecord(tenantID), nil
}

func (m *mockRegistry) ListActive(ctx context.Context) ([]domain.TenantRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRegistry) UpdateStatus(_ context.Context, tenantID string, status domain.Status) error {
	m.mu.Lock()
	m.statuses[tenantID] = status
	m.mu.Unlock()
	return nil
}

func (m *mockRegistry) status(tenantID string) (domain.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[tenantID]
	return s, ok
}

// mockVault implements unsealer.
type mockVault struct {
	unsealFn func(blob []byte) ([]byte, error)
}

func (m *mockVault) Unseal(blob []byte) ([]byte, error) {
	if m.unsealFn != nil {
		return m.unsealFn(blob)
	}
	return []byte("sk-plaintext"), nil
}

// mockHandle implements worker.Handle.
type mockHandle struct {
	ready chan struct{}
	done  chan struct{}

	once        sync.Once
	terminateFn func(ctx context.Context) error

	mu     sync.Mutex
	err    error
	killed bool
}

// newLiveHandle returns a handle that is already past startup.
func newLiveHandle() *mockHandle {
	h := &mockHandle{ready: make(chan struct{}), done: make(chan struct{})}
	close(h.ready)
	return h
}

func (h *mockHandle) IsLive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *mockHandle) Ready() <-chan struct{} { return h.ready }
func (h *mockHandle) Done() <-chan struct{}  { return h.done }

func (h *mockHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *mockHandle) Terminate(ctx context.Context) error {
	if h.terminateFn != nil {
		return h.terminateFn(ctx)
	}
	h.stop(nil)
	return nil
}

func (h *mockHandle) Kill() {
	h.mu.Lock()
	h.killed = true
	h.mu.Unlock()
	h.stop(nil)
}

func (h *mockHandle) wasKilled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.killed
}

// stop simulates worker exit with the given error.
func (h *mockHandle) stop(err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.err = err
		h.mu.Unlock()
		close(h.done)
	})
}

// mockRuntime implements worker.Runtime.
type mockRuntime struct {
	mu       sync.Mutex
	launchFn func(ctx context.Context, w *worker.Worker) (worker.Handle, error)
	launches int
}

func (m *mockRuntime) Launch(ctx context.Context, w *worker.Worker) (worker.Handle, error) {
	m.mu.Lock()
	m.launches++
	m.mu.Unlock()
	if m.launchFn != nil {
		return m.launchFn(ctx, w)
	}
	return newLiveHandle(), nil
}

func (m *mockRuntime) Lookup(_ string) (*worker.Worker, bool) { return nil, false }

func (m *mockRuntime) launchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.launches
}

func testRecord(tenantID string) domain.TenantRecord {
	return domain.TenantRecord{
		TenantID:        tenantID,
		WorkerIdentity:  "support_bot",
		ModelCredential: []byte("sealed"),
		Status:          domain.StatusActive,
	}
}

func testFactory(rec domain.TenantRecord, _ string) (*worker.Worker, error) {
	return worker.New(rec.TenantID, rec.WorkerIdentity, nil, nil, nil, nil, zap.NewNop()), nil
}

func newTestSupervisor(t *testing.T) (*Supervisor, *mockRegistry, *mockVault, *mockRuntime) {
	t.Helper()
	reg := newMockRegistry()
	vault := &mockVault{}
	runtime := &mockRuntime{}

	sv := New(reg, vault, runtime, testFactory, Config{
		SpawnTimeout: time.Second,
		StopGrace:    time.Second,
	}, zap.NewNop())
	return sv, reg, vault, runtime
}
