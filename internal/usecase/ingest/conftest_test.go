package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/retry"
)

// mockEmbedder implements domain.BatchEmbedder for tests.
type mockEmbedder struct {
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.batchEmbedFn != nil {
		return m.batchEmbedFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return domain.BatchEmbeddingResult{Embeddings: vectors, TotalTokens: len(texts)}, nil
}

// mockChunkWriter implements ChunkWriter for tests.
type mockChunkWriter struct {
	addFn func(ctx context.Context, collection string, chunks []domain.Chunk, vectors [][]float32) error
}

func (m *mockChunkWriter) Add(ctx context.Context, collection string, chunks []domain.Chunk, vectors [][]float32) error {
	if m.addFn != nil {
		return m.addFn(ctx, collection, chunks, vectors)
	}
	return nil
}

// mockGateway implements CollectionGateway for tests.
type mockGateway struct {
	ensureFn func(ctx context.Context, name string) error
	deleteFn func(ctx context.Context, name string) error
}

func (m *mockGateway) Ensure(ctx context.Context, name string) error {
	if m.ensureFn != nil {
		return m.ensureFn(ctx, name)
	}
	return nil
}

func (m *mockGateway) Delete(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

// mockCounter implements Counter for tests.
type mockCounter struct {
	incrementFn func(ctx context.Context, tenantID string, docs, chunks int64) error
	resetFn     func(ctx context.Context, tenantID string) error
}

func (m *mockCounter) IncrementCounts(ctx context.Context, tenantID string, docs, chunks int64) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, tenantID, docs, chunks)
	}
	return nil
}

func (m *mockCounter) ResetCounts(ctx context.Context, tenantID string) error {
	if m.resetFn != nil {
		return m.resetFn(ctx, tenantID)
	}
	return nil
}

func testLimits() Limits {
	return Limits{
		MaxArchiveBytes: 1 << 20,
		MaxFileBytes:    256 << 10,
		ChunkSize:       1000,
		ChunkOverlap:    200,
		PoolSize:        2,
	}
}

func newTestService(t *testing.T) (*Service, *mockChunkWriter, *mockGateway, *mockCounter) {
	t.Helper()
	writer := &mockChunkWriter{}
	gateway := &mockGateway{}
	counter := &mockCounter{}

	svc, err := New("42", &mockEmbedder{}, writer, gateway, counter, testLimits(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(svc.Release)
	// Keep retry waits out of unit tests.
	svc.retryPol = retry.Policy{MaxAttempts: 2, BaseDelay: 1, MaxDelay: 1}
	return svc, writer, gateway, counter
}

// buildArchive zips the given name→content entries.
func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
