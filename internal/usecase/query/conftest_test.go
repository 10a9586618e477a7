package query

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/retry"
)

// mockEmbedder implements domain.Embedder for tests.
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 3}, nil
}

// mockGenerator implements domain.Generator for tests.
type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
	calls      int
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "generated answer", nil
}

// mockRetriever implements Retriever for tests.
type mockRetriever struct {
	topKFn func(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredChunk, error)
}

func (m *mockRetriever) TopK(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if m.topKFn != nil {
		return m.topKFn(ctx, collection, vector, k)
	}
	return nil, nil
}

// mockCounter implements CollectionCounter for tests.
type mockCounter struct {
	countFn func(ctx context.Context, name string) (int64, error)
}

func (m *mockCounter) Count(ctx context.Context, name string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, name)
	}
	return 10, nil
}

func newTestService(t *testing.T) (*Service, *mockEmbedder, *mockGenerator, *mockRetriever, *mockCounter) {
	t.Helper()
	embedder := &mockEmbedder{}
	generator := &mockGenerator{}
	retriever := &mockRetriever{}
	counter := &mockCounter{}

	svc := New("42", embedder, generator, retriever, counter, Limits{
		TopK:             5,
		MaxContextChars:  12000,
		MaxQuestionChars: 4000,
	}, zap.NewNop())
	// Keep retry waits out of unit tests.
	svc.retryPol = retry.Policy{MaxAttempts: 2, BaseDelay: 1, MaxDelay: 1}
	return svc, embedder, generator, retriever, counter
}

func scoredChunk(text, source string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{ID: "c1", Text: text, Source: source},
		Score: score,
	}
}
