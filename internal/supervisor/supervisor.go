// Package supervisor owns the fleet of per-tenant workers. All lifecycle
// mutation for one tenant is serialized through its arena slot; tenants
// never block each other.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/metrics"
	"github.com/kailas-cloud/ragfleet/internal/worker"
)

// registry is the supervisor's view of the tenant store.
type registry interface {
	Get(ctx context.Context, tenantID string) (domain.TenantRecord, error)
	ListActive(ctx context.Context) ([]domain.TenantRecord, error)
	UpdateStatus(ctx context.Context, tenantID string, status domain.Status) error
}

// unsealer decrypts sealed credentials.
type unsealer interface {
	Unseal(blob []byte) ([]byte, error)
}

// WorkerFactory assembles the single-tenant worker from its registry record
// and the decrypted model credential.
type WorkerFactory func(rec domain.TenantRecord, modelCredential string) (*worker.Worker, error)

// Config bounds lifecycle operations.
type Config struct {
	SpawnTimeout time.Duration
	StopGrace    time.Duration
	// RespawnConcurrency caps how many workers RespawnAll starts at once.
	// Zero means unbounded.
	RespawnConcurrency int
}

// Supervisor spawns, stops and restarts workers and keeps the registry
// status in step with what is actually running.
type Supervisor struct {
	registry registry
	vault    unsealer
	runtime  worker.Runtime
	factory  WorkerFactory
	cfg      Config
	logger   *zap.Logger

	mu    sync.Mutex
	arena map[string]*slot
}

// slot holds one tenant's lifecycle state. The lifecycle mutex serializes
// spawn/stop/restart; the handle has its own lock so liveness checks never
// wait behind an in-flight lifecycle operation.
type slot struct {
	lifecycle sync.Mutex

	hmu    sync.RWMutex
	handle worker.Handle
}

func (s *slot) get() worker.Handle {
	s.hmu.RLock()
	defer s.hmu.RUnlock()
	return s.handle
}

func (s *slot) set(h worker.Handle) {
	s.hmu.Lock()
	s.handle = h
	s.hmu.Unlock()
}

// take clears and returns the current handle.
func (s *slot) take() worker.Handle {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	h := s.handle
	s.handle = nil
	return h
}

// clearIf removes the handle only if it is still the given one.
func (s *slot) clearIf(h worker.Handle) bool {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	if s.handle != h {
		return false
	}
	s.handle = nil
	return true
}

// New creates a supervisor.
func New(
	reg registry,
	vault unsealer,
	runtime worker.Runtime,
	factory WorkerFactory,
	cfg Config,
	logger *zap.Logger,
) *Supervisor {
	return &Supervisor{
		registry: reg,
		vault:    vault,
		runtime:  runtime,
		factory:  factory,
		cfg:      cfg,
		logger:   logger,
		arena:    make(map[string]*slot),
	}
}

func (sv *Supervisor) slotFor(tenantID string) *slot {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	s, ok := sv.arena[tenantID]
	if !ok {
		s = &slot{}
		sv.arena[tenantID] = s
	}
	return s
}

// Spawn starts a worker for the tenant. Spawning a tenant whose worker is
// already live is a no-op.
func (sv *Supervisor) Spawn(ctx context.Context, tenantID string) error {
	s := sv.slotFor(tenantID)
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return sv.spawnLocked(ctx, tenantID, s)
}

func (sv *Supervisor) spawnLocked(ctx context.Context, tenantID string, s *slot) error {
	if h := s.get(); h != nil {
		if h.IsLive() {
			return nil
		}
		// a crashed worker still occupies a gauge slot until evicted
		if s.clearIf(h) {
			metrics.WorkersLive.Dec()
		}
	}

	rec, err := sv.registry.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant record: %w", err)
	}

	h, err := sv.launch(ctx, rec)
	if err != nil {
		metrics.WorkerSpawnsTotal.WithLabelValues("failure").Inc()
		sv.markError(ctx, tenantID)
		return domain.NewSpawnError(tenantID, err)
	}

	s.set(h)
	metrics.WorkerSpawnsTotal.WithLabelValues("success").Inc()
	metrics.WorkersLive.Inc()

	if err := sv.registry.UpdateStatus(ctx, tenantID, domain.StatusActive); err != nil {
		sv.logger.Warn("failed to mark tenant active",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}

	sv.logger.Info("worker spawned", zap.String("tenant_id", tenantID))
	return nil
}

// launch builds the worker, starts it and waits for readiness within the
// spawn timeout.
func (sv *Supervisor) launch(ctx context.Context, rec domain.TenantRecord) (worker.Handle, error) {
	cred, err := sv.vault.Unseal(rec.ModelCredential)
	if err != nil {
		return nil, fmt.Errorf("unseal model credential: %w", err)
	}

	w, err := sv.factory(rec, string(cred))
	if err != nil {
		return nil, fmt.Errorf("build worker: %w", err)
	}

	h, err := sv.runtime.Launch(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("launch worker: %w", err)
	}

	select {
	case <-h.Ready():
		return h, nil
	case <-h.Done():
		return nil, fmt.Errorf("worker exited during startup: %w", h.Err())
	case <-time.After(sv.cfg.SpawnTimeout):
		h.Kill()
		return nil, fmt.Errorf("worker not ready within %s", sv.cfg.SpawnTimeout)
	}
}

// Stop terminates the tenant's worker. Stopping a tenant with no running
// worker succeeds with no state change.
func (sv *Supervisor) Stop(ctx context.Context, tenantID string) error {
	s := sv.slotFor(tenantID)
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return sv.stopLocked(ctx, tenantID, s)
}

func (sv *Supervisor) stopLocked(ctx context.Context, tenantID string, s *slot) error {
	h := s.take()
	if h == nil {
		return nil
	}
	if !h.IsLive() {
		metrics.WorkersLive.Dec()
		return nil
	}

	gctx, cancel := context.WithTimeout(ctx, sv.cfg.StopGrace)
	defer cancel()
	if err := h.Terminate(gctx); err != nil {
		sv.logger.Warn("graceful stop timed out, killing worker",
			zap.String("tenant_id", tenantID), zap.Error(err))
		h.Kill()
		<-h.Done()
	}

	metrics.WorkersLive.Dec()
	if err := sv.registry.UpdateStatus(ctx, tenantID, domain.StatusStopped); err != nil {
		sv.logger.Warn("failed to mark tenant stopped",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}

	sv.logger.Info("worker stopped", zap.String("tenant_id", tenantID))
	return nil
}

// Restart stops then spawns the tenant's worker as one serialized step.
func (sv *Supervisor) Restart(ctx context.Context, tenantID string) error {
	s := sv.slotFor(tenantID)
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if err := sv.stopLocked(ctx, tenantID, s); err != nil {
		return err
	}
	return sv.spawnLocked(ctx, tenantID, s)
}

// RespawnAll spawns a worker for every active tenant record. Each tenant's
// failure is isolated: its record is marked error and the rest proceed.
// Returns how many workers started and how many tenants failed.
func (sv *Supervisor) RespawnAll(ctx context.Context) (started, failed int, err error) {
	recs, listErr := sv.registry.ListActive(ctx)
	if listErr != nil {
		return 0, 0, fmt.Errorf("list active tenants: %w", listErr)
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem chan struct{}
	)
	if sv.cfg.RespawnConcurrency > 0 {
		sem = make(chan struct{}, sv.cfg.RespawnConcurrency)
	}
	for _, rec := range recs {
		wg.Add(1)
		rec := rec
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			if spawnErr := sv.Spawn(ctx, rec.TenantID); spawnErr != nil {
				sv.logger.Error("respawn failed",
					zap.String("tenant_id", rec.TenantID), zap.Error(spawnErr))
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			started++
			mu.Unlock()
		}()
	}
	wg.Wait()

	sv.logger.Info("respawn complete", zap.Int("started", started), zap.Int("failed", failed))
	return started, failed, nil
}

// IsLive reports whether the tenant has a running worker. Dead handles are
// evicted lazily here rather than by a background poller.
func (sv *Supervisor) IsLive(tenantID string) bool {
	sv.mu.Lock()
	s, ok := sv.arena[tenantID]
	sv.mu.Unlock()
	if !ok {
		return false
	}

	h := s.get()
	if h == nil {
		return false
	}
	if h.IsLive() {
		return true
	}
	if s.clearIf(h) {
		metrics.WorkersLive.Dec()
	}
	return false
}

// markError flags the tenant record after a failed spawn; operators resolve
// it via restart.
func (sv *Supervisor) markError(ctx context.Context, tenantID string) {
	if err := sv.registry.UpdateStatus(ctx, tenantID, domain.StatusError); err != nil {
		sv.logger.Warn("failed to mark tenant errored",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}
}
