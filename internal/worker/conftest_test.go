package worker

import (
	"archive/zip"
	"bytes"
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/usecase/ingest"
	"github.com/kailas-cloud/ragfleet/internal/usecase/query"
)

// stubEmbedder implements domain.Embedder and domain.BatchEmbedder.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{0.1}}, nil
}

func (stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1}
	}
	return domain.BatchEmbeddingResult{Embeddings: vectors}, nil
}

// stubGenerator implements domain.Generator.
type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "answer", nil
}

// stubWriter implements ingest.ChunkWriter.
type stubWriter struct{}

func (stubWriter) Add(_ context.Context, _ string, _ []domain.Chunk, _ [][]float32) error {
	return nil
}

// stubGateway implements the ingest and worker collection gateways.
type stubGateway struct {
	ensureFn func(ctx context.Context, name string) error
	count    int64
}

func (g *stubGateway) Ensure(ctx context.Context, name string) error {
	if g.ensureFn != nil {
		return g.ensureFn(ctx, name)
	}
	return nil
}

func (g *stubGateway) Delete(_ context.Context, _ string) error { return nil }

func (g *stubGateway) Count(_ context.Context, _ string) (int64, error) {
	return g.count, nil
}

// stubCounter implements ingest.Counter.
type stubCounter struct{}

func (stubCounter) IncrementCounts(_ context.Context, _ string, _, _ int64) error { return nil }
func (stubCounter) ResetCounts(_ context.Context, _ string) error                 { return nil }

// stubRetriever implements query.Retriever.
type stubRetriever struct{}

func (stubRetriever) TopK(_ context.Context, _ string, _ []float32, _ int) ([]domain.ScoredChunk, error) {
	return nil, nil
}

// stubRecords implements recordReader.
type stubRecords struct {
	record domain.TenantRecord
}

func (r *stubRecords) Get(_ context.Context, _ string) (domain.TenantRecord, error) {
	return r.record, nil
}

// memVectorStore is a shared in-memory vector store keyed by collection.
// It backs ingestion, retrieval and counting for multi-worker tests.
type memVectorStore struct {
	mu     sync.Mutex
	chunks map[string][]domain.Chunk
}

func newMemVectorStore() *memVectorStore {
	return &memVectorStore{chunks: make(map[string][]domain.Chunk)}
}

func (s *memVectorStore) Ensure(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[name]; !ok {
		s.chunks[name] = nil
	}
	return nil
}

func (s *memVectorStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	delete(s.chunks, name)
	s.mu.Unlock()
	return nil
}

func (s *memVectorStore) Count(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.chunks[name])), nil
}

func (s *memVectorStore) Add(_ context.Context, collection string, chunks []domain.Chunk, _ [][]float32) error {
	s.mu.Lock()
	s.chunks[collection] = append(s.chunks[collection], chunks...)
	s.mu.Unlock()
	return nil
}

func (s *memVectorStore) TopK(_ context.Context, collection string, _ []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ScoredChunk
	for _, c := range s.chunks[collection] {
		if len(out) == k {
			break
		}
		out = append(out, domain.ScoredChunk{Chunk: c, Score: 0.9})
	}
	return out, nil
}

// newStoreWorker builds a worker whose pipelines all run over the shared
// store, so several workers can coexist against one backend.
func newStoreWorker(t *testing.T, tenantID string, store *memVectorStore) *Worker {
	t.Helper()

	ingestSvc, err := ingest.New(tenantID, stubEmbedder{}, store, store, stubCounter{}, ingest.Limits{
		MaxArchiveBytes: 1 << 20,
		MaxFileBytes:    1 << 20,
		ChunkSize:       1000,
		ChunkOverlap:    200,
		PoolSize:        1,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	querySvc := query.New(tenantID, stubEmbedder{}, stubGenerator{}, store, store, query.Limits{
		TopK: 5,
	}, zap.NewNop())

	return New(tenantID, "worker_bot", ingestSvc, querySvc, store, &stubRecords{}, zap.NewNop())
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return buf.Bytes()
}

func newTestRuntime(t *testing.T) *TaskRuntime {
	t.Helper()
	return NewTaskRuntime(zap.NewNop())
}

func newTestWorker(t *testing.T, tenantID string, gateway *stubGateway, records *stubRecords) *Worker {
	t.Helper()

	ingestSvc, err := ingest.New(tenantID, stubEmbedder{}, stubWriter{}, gateway, stubCounter{}, ingest.Limits{
		MaxArchiveBytes: 1 << 20,
		MaxFileBytes:    1 << 20,
		ChunkSize:       1000,
		ChunkOverlap:    200,
		PoolSize:        1,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	querySvc := query.New(tenantID, stubEmbedder{}, stubGenerator{}, stubRetriever{}, gateway, query.Limits{
		TopK: 5,
	}, zap.NewNop())

	return New(tenantID, "worker_bot", ingestSvc, querySvc, gateway, records, zap.NewNop())
}
