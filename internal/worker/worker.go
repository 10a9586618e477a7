// Package worker hosts the single-tenant pipeline a supervisor runs
// for each registered tenant.
package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/domain/batch"
	"github.com/kailas-cloud/ragfleet/internal/usecase/ingest"
	"github.com/kailas-cloud/ragfleet/internal/usecase/query"
)

// collectionGateway is the worker's view of the vector store collection.
type collectionGateway interface {
	Ensure(ctx context.Context, name string) error
	Count(ctx context.Context, name string) (int64, error)
}

// recordReader fetches the tenant record for stats reporting.
type recordReader interface {
	Get(ctx context.Context, tenantID string) (domain.TenantRecord, error)
}

// Stats is the usage snapshot a worker reports for its tenant.
type Stats struct {
	DocumentCount int64
	ChunkCount    int64
}

// Worker owns one tenant's ingestion pipeline and query engine. Ingest and
// query run concurrently; Clear takes the collection exclusively.
type Worker struct {
	tenantID   string
	identity   string
	collection string

	ingest  *ingest.Service
	query   *query.Service
	gateway collectionGateway
	records recordReader
	logger  *zap.Logger

	mu sync.RWMutex
}

// New creates a worker bound to one tenant.
func New(
	tenantID string,
	identity string,
	ingestSvc *ingest.Service,
	querySvc *query.Service,
	gateway collectionGateway,
	records recordReader,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		tenantID:   tenantID,
		identity:   identity,
		collection: domain.CollectionName(tenantID),
		ingest:     ingestSvc,
		query:      querySvc,
		gateway:    gateway,
		records:    records,
		logger:     logger,
	}
}

// TenantID returns the tenant this worker serves.
func (w *Worker) TenantID() string { return w.tenantID }

// Identity returns the identity from the worker credential.
func (w *Worker) Identity() string { return w.identity }

// Run prepares the collection, signals readiness, then blocks until the
// context is cancelled. The ingest pool is released on exit.
func (w *Worker) Run(ctx context.Context, ready chan<- struct{}) error {
	defer w.ingest.Release()

	if err := w.gateway.Ensure(ctx, w.collection); err != nil {
		return fmt.Errorf("ensure collection %s: %w", w.collection, err)
	}

	w.logger.Info("worker started",
		zap.String("tenant_id", w.tenantID),
		zap.String("identity", w.identity),
	)
	close(ready)

	<-ctx.Done()
	w.logger.Info("worker stopped", zap.String("tenant_id", w.tenantID))
	return nil
}

// Ingest processes one uploaded archive.
func (w *Worker) Ingest(ctx context.Context, archive []byte) (batch.Result, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ingest.Ingest(ctx, archive)
}

// Query answers a question from the tenant's documents.
func (w *Worker) Query(ctx context.Context, question string) (query.Answer, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.query.Query(ctx, question)
}

// Clear wipes the tenant's collection and counters. It blocks concurrent
// ingests and queries until the collection is recreated.
func (w *Worker) Clear(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ingest.Clear(ctx)
}

// Stats reports the tenant's document and chunk counts. The chunk count
// comes from the vector store; the document count from the registry.
func (w *Worker) Stats(ctx context.Context) (Stats, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	chunks, err := w.gateway.Count(ctx, w.collection)
	if err != nil {
		return Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	rec, err := w.records.Get(ctx, w.tenantID)
	if err != nil {
		return Stats{}, fmt.Errorf("load tenant record: %w", err)
	}
	return Stats{DocumentCount: rec.DocumentCount, ChunkCount: chunks}, nil
}
