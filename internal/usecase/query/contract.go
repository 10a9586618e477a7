package query

import (
	"context"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// Retriever returns the top-k nearest chunks for a query vector.
type Retriever interface {
	TopK(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredChunk, error)
}

// CollectionCounter reports the exact chunk count of a collection.
type CollectionCounter interface {
	Count(ctx context.Context, name string) (int64, error)
}
