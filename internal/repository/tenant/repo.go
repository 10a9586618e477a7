// Package tenant persists tenant registry records as Redis hashes.
package tenant

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// store is the consumer interface for the tenant registry (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the tenant registry over hash storage.
type Repo struct {
	store store
}

// New creates a tenant repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create stores a new tenant record. Returns domain.ErrTenantExists if the
// tenant is already registered.
func (r *Repo) Create(ctx context.Context, rec domain.TenantRecord) error {
	key := recordKey(rec.TenantID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrTenantExists
	}

	if err := r.store.HSet(ctx, key, recordToHash(rec)); err != nil {
		return fmt.Errorf("hset tenant %s: %w", rec.TenantID, err)
	}
	return nil
}

// Get retrieves a tenant record by id.
func (r *Repo) Get(ctx context.Context, tenantID string) (domain.TenantRecord, error) {
	m, err := r.store.HGetAll(ctx, recordKey(tenantID))
	if err != nil {
		return domain.TenantRecord{}, fmt.Errorf("hgetall tenant %s: %w", tenantID, err)
	}
	if len(m) == 0 {
		return domain.TenantRecord{}, domain.ErrTenantNotFound
	}
	return recordFromHash(tenantID, m)
}

// List returns all tenant records sorted by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]domain.TenantRecord, error) {
	keys, err := r.store.Scan(ctx, recordKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan tenants: %w", err)
	}

	records := make([]domain.TenantRecord, 0, len(keys))
	for _, key := range keys {
		m, err := r.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("hgetall %s: %w", key, err)
		}
		if len(m) == 0 {
			continue // deleted between SCAN and HGETALL
		}
		rec, err := recordFromHash(tenantIDFromKey(key), m)
		if err != nil {
			return nil, fmt.Errorf("parse tenant %s: %w", key, err)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}

// ListActive returns tenants whose durable status is active.
func (r *Repo) ListActive(ctx context.Context) ([]domain.TenantRecord, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	active := all[:0]
	for _, rec := range all {
		if rec.Status == domain.StatusActive {
			active = append(active, rec)
		}
	}
	return active, nil
}

// UpdateStatus transitions a tenant's durable status.
func (r *Repo) UpdateStatus(ctx context.Context, tenantID string, status domain.Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	key := recordKey(tenantID)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrTenantNotFound
	}

	if err := r.store.HSet(ctx, key, statusFields(status)); err != nil {
		return fmt.Errorf("hset status for tenant %s: %w", tenantID, err)
	}
	return nil
}

// IncrementCounts atomically bumps the document and chunk counters.
func (r *Repo) IncrementCounts(ctx context.Context, tenantID string, docs, chunks int64) error {
	key := recordKey(tenantID)

	if _, err := r.store.HIncrBy(ctx, key, fieldDocumentCount, docs); err != nil {
		return fmt.Errorf("hincrby documents for tenant %s: %w", tenantID, err)
	}
	if _, err := r.store.HIncrBy(ctx, key, fieldChunkCount, chunks); err != nil {
		return fmt.Errorf("hincrby chunks for tenant %s: %w", tenantID, err)
	}
	return nil
}

// ResetCounts zeroes both usage counters.
func (r *Repo) ResetCounts(ctx context.Context, tenantID string) error {
	key := recordKey(tenantID)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrTenantNotFound
	}

	if err := r.store.HSet(ctx, key, zeroCountFields()); err != nil {
		return fmt.Errorf("hset counts for tenant %s: %w", tenantID, err)
	}
	return nil
}

// Delete removes a tenant record. Deleting an absent record is not an error.
func (r *Repo) Delete(ctx context.Context, tenantID string) error {
	if err := r.store.Del(ctx, recordKey(tenantID)); err != nil {
		return fmt.Errorf("del tenant %s: %w", tenantID, err)
	}
	return nil
}

// Key pattern: ragfleet:tenant:{id}

func recordKey(tenantID string) string {
	return fmt.Sprintf("%stenant:%s", domain.KeyPrefix, tenantID)
}

func tenantIDFromKey(key string) string {
	return key[len(domain.KeyPrefix)+len("tenant:"):]
}
