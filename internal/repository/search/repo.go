// Package search runs vector similarity retrieval over a tenant collection.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ragfleet/internal/db"
	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// store is the consumer interface for retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements top-k retrieval.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// TopK returns the k nearest chunks to the query vector, most similar first.
func (r *Repo) TopK(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collection),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"text", "source", "ordinal"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search in %s: %w", collection, err)
	}

	scored := make([]domain.ScoredChunk, 0, len(result.Entries))
	for _, e := range result.Entries {
		ordinal, _ := strconv.Atoi(e.Fields["ordinal"])
		scored = append(scored, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:      chunkIDFromKey(collection, e.Key),
				Text:    e.Fields["text"],
				Source:  e.Fields["source"],
				Ordinal: ordinal,
			},
			Score: e.Score,
		})
	}
	return scored, nil
}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

func chunkIDFromKey(collection, key string) string {
	prefix := fmt.Sprintf("%s%s:chunk:", domain.KeyPrefix, collection)
	return strings.TrimPrefix(key, prefix)
}
