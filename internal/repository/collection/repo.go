// Package collection manages per-tenant vector collections: the FT index,
// its metadata marker, and the chunk keyspace underneath it.
package collection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/ragfleet/internal/db"
	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// store is the consumer interface for collection management (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the collection gateway.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a collection repository.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// Ensure creates the collection if it does not exist yet. Safe to call
// repeatedly; concurrent callers racing on FT.CREATE are tolerated.
func (r *Repo) Ensure(ctx context.Context, name string) error {
	if !db.IsValidIdentifier(name) {
		return fmt.Errorf("invalid collection name %q", name)
	}

	exists, err := r.store.IndexExists(ctx, indexName(name))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(name, r.vectorDim, r.hnsw)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	// Step 1: HSET the metadata marker
	if err := r.store.HSet(ctx, metaKey(name), metaFields()); err != nil {
		return fmt.Errorf("hset collection %s: %w", name, err)
	}

	// FT.CREATE — rollback the marker on error, tolerate a lost race
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		cleanupErr := r.store.Del(ctx, metaKey(name))
		return errors.Join(err, cleanupErr)
	}

	return nil
}

// Delete drops the index, the metadata marker, and every chunk key under
// the collection prefix. Deleting an absent collection is not an error.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := r.store.DropIndex(ctx, indexName(name)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index for %s: %w", name, err)
	}

	if err := r.store.Del(ctx, metaKey(name)); err != nil {
		return fmt.Errorf("del collection %s: %w", name, err)
	}

	// Dropped indexes do not delete their documents; sweep the chunk keys.
	chunkKeys, err := r.store.Scan(ctx, chunkPrefix(name)+"*")
	if err != nil {
		return fmt.Errorf("scan chunks for %s: %w", name, err)
	}
	if err := r.store.DelMulti(ctx, chunkKeys); err != nil {
		return fmt.Errorf("del chunks for %s: %w", name, err)
	}

	return nil
}

// Count returns the number of chunks indexed in the collection. A missing
// index counts as zero.
func (r *Repo) Count(ctx context.Context, name string) (int64, error) {
	exists, err := r.store.IndexExists(ctx, indexName(name))
	if err != nil {
		return 0, fmt.Errorf("check index exists: %w", err)
	}
	if !exists {
		return 0, nil
	}

	count, err := r.store.SearchCount(ctx, indexName(name))
	if err != nil {
		return 0, fmt.Errorf("count chunks in %s: %w", name, err)
	}
	return int64(count), nil
}

// List returns the names of all collections with a metadata marker.
func (r *Repo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan collections: %w", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key[len(metaKey("")):])
	}
	return names, nil
}

// buildIndex defines the per-collection chunk index: tag for the source
// file, numeric for chunk order, HNSW vector for retrieval.
func buildIndex(name string, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName(name)).
		Prefix(chunkPrefix(name)).
		Tag("source").
		Numeric("ordinal").
		VectorHNSWField("vector", vectorDim, hnsw.M, hnsw.EFConstruct).
		Build()
}

func metaFields() map[string]string {
	return map[string]string{
		"created_at": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
}

// Redis key patterns: ragfleet:collection:{name}, ragfleet:{name}:idx, ragfleet:{name}:chunk:{id}

func metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", domain.KeyPrefix, name)
}

func indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, name)
}

func chunkPrefix(name string) string {
	return fmt.Sprintf("%s%s:chunk:", domain.KeyPrefix, name)
}
