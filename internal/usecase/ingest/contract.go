package ingest

import (
	"context"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// ChunkWriter persists embedded chunks into a collection.
type ChunkWriter interface {
	Add(ctx context.Context, collection string, chunks []domain.Chunk, vectors [][]float32) error
}

// CollectionGateway manages the collection backing this tenant.
type CollectionGateway interface {
	Ensure(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
}

// Counter records usage against the tenant registry.
type Counter interface {
	IncrementCounts(ctx context.Context, tenantID string, docs, chunks int64) error
	ResetCounts(ctx context.Context, tenantID string) error
}
