// Package ingest turns uploaded zip archives into embedded, indexed chunks.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/domain/batch"
	"github.com/kailas-cloud/ragfleet/internal/metrics"
	"github.com/kailas-cloud/ragfleet/internal/parse"
	"github.com/kailas-cloud/ragfleet/internal/retry"
)

// Limits bound what a single upload may contain.
type Limits struct {
	MaxArchiveBytes int64
	MaxFileBytes    int64
	ChunkSize       int
	ChunkOverlap    int
	PoolSize        int
}

// Service processes uploads for one tenant's collection.
type Service struct {
	tenantID   string
	collection string
	embedder   domain.BatchEmbedder
	chunks     ChunkWriter
	gateway    CollectionGateway
	counter    Counter
	chunker    chunker
	limits     Limits
	pool       *ants.Pool
	retryPol   retry.Policy
	logger     *zap.Logger
}

// New creates an ingestion service. Call Release when the owning worker stops.
func New(
	tenantID string,
	embedder domain.BatchEmbedder,
	chunks ChunkWriter,
	gateway CollectionGateway,
	counter Counter,
	limits Limits,
	logger *zap.Logger,
) (*Service, error) {
	if limits.PoolSize < 1 {
		limits.PoolSize = 1
	}
	pool, err := ants.NewPool(limits.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("create ingest pool: %w", err)
	}

	return &Service{
		tenantID:   tenantID,
		collection: domain.CollectionName(tenantID),
		embedder:   embedder,
		chunks:     chunks,
		gateway:    gateway,
		counter:    counter,
		chunker:    newChunker(limits.ChunkSize, limits.ChunkOverlap),
		limits:     limits,
		pool:       pool,
		retryPol:   retry.DefaultPolicy(),
		logger:     logger,
	}, nil
}

// Release frees the worker pool.
func (s *Service) Release() {
	s.pool.Release()
}

// Ingest processes one uploaded archive. Per-file failures are isolated
// and reported in the result; only container-level problems return an error.
func (s *Service) Ingest(ctx context.Context, archive []byte) (batch.Result, error) {
	start := time.Now()

	if int64(len(archive)) > s.limits.MaxArchiveBytes {
		return batch.Result{}, fmt.Errorf(
			"archive is %d bytes, limit %d: %w", len(archive), s.limits.MaxArchiveBytes, domain.ErrPayloadTooLarge)
	}

	entries, skipped, oversized, err := enumerateArchive(archive, s.limits.MaxFileBytes)
	if err != nil {
		return batch.Result{}, err
	}
	if len(entries) == 0 && len(oversized) == 0 {
		return batch.Result{}, fmt.Errorf("%w (supported: %s)",
			domain.ErrNoDocuments, strings.Join(parse.Extensions(), ", "))
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]batch.FileResult, 0, len(entries)+len(skipped)+len(oversized))
	)
	record := func(r batch.FileResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	for _, name := range skipped {
		record(batch.NewSkipped(name))
	}
	for _, name := range oversized {
		record(batch.NewFailed(name, domain.ErrPayloadTooLarge))
	}

	for _, e := range entries {
		wg.Add(1)
		e := e
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			record(s.processFile(ctx, e))
		})
		if submitErr != nil {
			wg.Done()
			record(batch.NewFailed(e.name, submitErr))
		}
	}
	wg.Wait()

	result := batch.Result{Files: results}
	s.commit(ctx, result)

	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	for _, f := range result.Files {
		metrics.IngestFilesTotal.WithLabelValues(string(f.Status())).Inc()
	}
	metrics.IngestChunksTotal.Add(float64(result.ChunksAdded()))

	s.logger.Info("archive ingested",
		zap.String("tenant_id", s.tenantID),
		zap.Int64("documents", result.DocumentsIndexed()),
		zap.Int64("chunks", result.ChunksAdded()),
		zap.Int("failed", result.Failed()),
		zap.Int("skipped", result.Skipped()),
		zap.Duration("took", time.Since(start)),
	)

	return result, nil
}

// processFile runs the parse, chunk, embed, index pipeline for one file.
// Parser panics on malformed input are contained as per-file failures.
func (s *Service) processFile(ctx context.Context, e entry) (res batch.FileResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("file processing panicked",
				zap.String("tenant_id", s.tenantID),
				zap.String("file", e.name),
				zap.Any("panic", r),
			)
			res = batch.NewFailed(e.name, fmt.Errorf("parser panic: %v", r))
		}
	}()
	text, err := parse.File(e.name, e.data)
	if err != nil {
		return batch.NewFailed(e.name, err)
	}
	if text == "" {
		return batch.NewFailed(e.name, fmt.Errorf("no text content"))
	}

	chunks, err := s.chunker.split(e.name, text)
	if err != nil {
		return batch.NewFailed(e.name, err)
	}
	if len(chunks) == 0 {
		return batch.NewFailed(e.name, fmt.Errorf("no text content"))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var embedded domain.BatchEmbeddingResult
	err = retry.Do(ctx, s.retryPol, func(ctx context.Context) error {
		var embedErr error
		embedded, embedErr = s.embedder.BatchEmbed(ctx, texts)
		return embedErr
	})
	if err != nil {
		return batch.NewFailed(e.name, err)
	}

	if err := s.chunks.Add(ctx, s.collection, chunks, embedded.Embeddings); err != nil {
		return batch.NewFailed(e.name, err)
	}

	return batch.NewIndexed(e.name, len(chunks))
}

// commit records the indexed subset against the tenant's usage counters.
func (s *Service) commit(ctx context.Context, result batch.Result) {
	docs := result.DocumentsIndexed()
	chunks := result.ChunksAdded()
	if docs == 0 && chunks == 0 {
		return
	}
	if err := s.counter.IncrementCounts(ctx, s.tenantID, docs, chunks); err != nil {
		// Chunks are already indexed; counters drift rather than lose data.
		s.logger.Warn("failed to update usage counters",
			zap.String("tenant_id", s.tenantID), zap.Error(err))
	}
}

// Clear wipes the collection and re-creates it empty, zeroing counters.
// Callers must hold the worker's exclusive collection lock.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.gateway.Delete(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := s.gateway.Ensure(ctx, s.collection); err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	if err := s.counter.ResetCounts(ctx, s.tenantID); err != nil {
		return fmt.Errorf("reset counters: %w", err)
	}
	return nil
}
