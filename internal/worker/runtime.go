package worker

import "context"

// Handle is the supervisor's capability over one running worker. It exposes
// liveness and termination only; routing to the worker goes through the
// runtime directory instead.
type Handle interface {
	// IsLive reports whether the worker is still running.
	IsLive() bool
	// Ready is closed once the worker finished startup.
	Ready() <-chan struct{}
	// Done is closed when the worker has fully stopped.
	Done() <-chan struct{}
	// Err returns the worker's exit error after Done is closed.
	Err() error
	// Terminate asks the worker to stop and waits for it within ctx.
	Terminate(ctx context.Context) error
	// Kill stops the worker without waiting.
	Kill()
}

// Runtime launches workers on some isolation primitive and tracks which
// tenant each one serves.
type Runtime interface {
	Launch(ctx context.Context, w *Worker) (Handle, error)
	Lookup(tenantID string) (*Worker, bool)
}
