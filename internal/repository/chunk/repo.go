// Package chunk writes embedded document chunks into a tenant collection.
package chunk

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragfleet/internal/db"
	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// store is the consumer interface for chunk writes (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
}

// Repo implements chunk persistence.
type Repo struct {
	store store
}

// New creates a chunk repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Add writes chunks and their embeddings in one pipelined round trip.
// vectors[i] is the embedding of chunks[i].
func (r *Repo) Add(ctx context.Context, collection string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(chunks))
	for i, c := range chunks {
		items[i] = db.HashSetItem{
			Key:    ChunkKey(collection, c.ID),
			Fields: buildHashFields(c, vectors[i]),
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset chunks in %s: %w", collection, err)
	}
	return nil
}

// ChunkKey builds the storage key for one chunk. Keys live under the
// collection's index prefix so FT indexing picks them up.
func ChunkKey(collection, chunkID string) string {
	return fmt.Sprintf("%s%s:chunk:%s", domain.KeyPrefix, collection, chunkID)
}
