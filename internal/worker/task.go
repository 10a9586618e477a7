package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// TaskRuntime runs each worker as a supervised goroutine and keeps a
// directory from tenant id to its live worker.
type TaskRuntime struct {
	logger *zap.Logger

	mu        sync.RWMutex
	directory map[string]*Worker
}

// NewTaskRuntime creates a goroutine-backed worker runtime.
func NewTaskRuntime(logger *zap.Logger) *TaskRuntime {
	return &TaskRuntime{
		logger:    logger,
		directory: make(map[string]*Worker),
	}
}

// Launch starts the worker and registers it in the directory. The returned
// handle owns the worker's lifetime; when the worker exits for any reason
// it is removed from the directory.
func (r *TaskRuntime) Launch(ctx context.Context, w *Worker) (Handle, error) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h := &taskHandle{
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	if _, exists := r.directory[w.TenantID()]; exists {
		r.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("worker for tenant %s already registered", w.TenantID())
	}
	r.directory[w.TenantID()] = w
	r.mu.Unlock()

	go func() {
		defer close(h.done)
		defer r.remove(w.TenantID())

		if err := w.Run(runCtx, h.ready); err != nil {
			h.setErr(err)
			r.logger.Error("worker exited",
				zap.String("tenant_id", w.TenantID()), zap.Error(err))
		}
	}()

	return h, nil
}

// Lookup returns the live worker for a tenant, if any.
func (r *TaskRuntime) Lookup(tenantID string) (*Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.directory[tenantID]
	return w, ok
}

func (r *TaskRuntime) remove(tenantID string) {
	r.mu.Lock()
	delete(r.directory, tenantID)
	r.mu.Unlock()
}

// taskHandle implements Handle for goroutine-backed workers.
type taskHandle struct {
	cancel context.CancelFunc
	ready  chan struct{}
	done   chan struct{}

	errMu sync.Mutex
	err   error
}

func (h *taskHandle) IsLive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *taskHandle) Ready() <-chan struct{} { return h.ready }

func (h *taskHandle) Done() <-chan struct{} { return h.done }

func (h *taskHandle) Err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}

func (h *taskHandle) setErr(err error) {
	h.errMu.Lock()
	h.err = err
	h.errMu.Unlock()
}

// Terminate cancels the worker and waits for it to stop within ctx.
func (h *taskHandle) Terminate(ctx context.Context) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker did not stop in time: %w", ctx.Err())
	}
}

// Kill cancels the worker without waiting for it to stop.
func (h *taskHandle) Kill() {
	h.cancel()
}
