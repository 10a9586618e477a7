package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// collectionSweeper is the supervisor's view of the vector store during
// reconciliation.
type collectionSweeper interface {
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// ReconcileCollections deletes collections whose tenant record no longer
// exists. Run at startup, after RespawnAll, to clean up after interrupted
// tenant deletions.
func (sv *Supervisor) ReconcileCollections(ctx context.Context, collections collectionSweeper) (int, error) {
	names, err := collections.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list collections: %w", err)
	}

	removed := 0
	for _, name := range names {
		tenantID, ok := tenantIDFromCollection(name)
		if !ok {
			continue
		}

		_, err := sv.registry.Get(ctx, tenantID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrTenantNotFound) {
			return removed, fmt.Errorf("load tenant record for %s: %w", name, err)
		}

		if err := collections.Delete(ctx, name); err != nil {
			sv.logger.Warn("failed to delete orphan collection",
				zap.String("collection", name), zap.Error(err))
			continue
		}
		removed++
		sv.logger.Info("orphan collection removed",
			zap.String("collection", name), zap.String("tenant_id", tenantID))
	}
	return removed, nil
}

// tenantIDFromCollection inverts domain.CollectionName.
func tenantIDFromCollection(name string) (string, bool) {
	id, found := strings.CutPrefix(name, "tenant_")
	if !found || id == "" {
		return "", false
	}
	return id, true
}
