// Package tenant orchestrates tenant onboarding, teardown and status.
package tenant

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// Status is the combined durable and live view of one tenant.
type Status struct {
	Record     domain.TenantRecord
	WorkerLive bool
	LiveChunks int64
}

// Service implements tenant lifecycle on top of the registry, the vault
// and the supervisor.
type Service struct {
	registry        registry
	vault           sealer
	fleet           fleet
	collections     collections
	workerValidator domain.WorkerCredentialValidator
	modelValidator  domain.ModelCredentialValidator
	logger          *zap.Logger
}

// New creates the tenant service.
func New(
	reg registry,
	vault sealer,
	fl fleet,
	cols collections,
	workerValidator domain.WorkerCredentialValidator,
	modelValidator domain.ModelCredentialValidator,
	logger *zap.Logger,
) *Service {
	return &Service{
		registry:        reg,
		vault:           vault,
		fleet:           fl,
		collections:     cols,
		workerValidator: workerValidator,
		modelValidator:  modelValidator,
		logger:          logger,
	}
}

// Register validates both credentials, stores them sealed and spawns the
// tenant's worker. A spawn failure leaves the record in place with status
// error; operators recover via restart.
func (s *Service) Register(ctx context.Context, tenantID, workerCred, modelCred string) (domain.TenantRecord, error) {
	identity, err := s.workerValidator.ValidateWorkerCredential(ctx, workerCred)
	if err != nil {
		return domain.TenantRecord{}, fmt.Errorf("worker credential: %w", err)
	}
	if err := s.modelValidator.ValidateModelCredential(ctx, modelCred); err != nil {
		return domain.TenantRecord{}, fmt.Errorf("model credential: %w", err)
	}

	sealedWorker, err := s.vault.Seal([]byte(workerCred))
	if err != nil {
		return domain.TenantRecord{}, fmt.Errorf("seal worker credential: %w", err)
	}
	sealedModel, err := s.vault.Seal([]byte(modelCred))
	if err != nil {
		return domain.TenantRecord{}, fmt.Errorf("seal model credential: %w", err)
	}

	now := time.Now()
	rec := domain.TenantRecord{
		TenantID:         tenantID,
		WorkerIdentity:   identity,
		WorkerCredential: sealedWorker,
		ModelCredential:  sealedModel,
		Status:           domain.StatusStopped,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.registry.Create(ctx, rec); err != nil {
		return domain.TenantRecord{}, err
	}

	if err := s.fleet.Spawn(ctx, tenantID); err != nil {
		s.logger.Error("spawn after registration failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return rec, err
	}

	s.logger.Info("tenant registered",
		zap.String("tenant_id", tenantID), zap.String("identity", identity))
	return s.registry.Get(ctx, tenantID)
}

// Delete tears a tenant down: worker first, then the collection, then the
// registry record. The order keeps a crashed teardown recoverable by the
// startup reconcile sweep.
func (s *Service) Delete(ctx context.Context, tenantID string) error {
	if _, err := s.registry.Get(ctx, tenantID); err != nil {
		return err
	}

	if err := s.fleet.Stop(ctx, tenantID); err != nil {
		return fmt.Errorf("stop worker: %w", err)
	}
	if err := s.collections.Delete(ctx, domain.CollectionName(tenantID)); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := s.registry.Delete(ctx, tenantID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	s.logger.Info("tenant deleted", zap.String("tenant_id", tenantID))
	return nil
}

// Status returns the tenant record together with worker liveness and the
// exact chunk count from the vector store.
func (s *Service) Status(ctx context.Context, tenantID string) (Status, error) {
	rec, err := s.registry.Get(ctx, tenantID)
	if err != nil {
		return Status{}, err
	}

	chunks, err := s.collections.Count(ctx, domain.CollectionName(tenantID))
	if err != nil {
		return Status{}, fmt.Errorf("count chunks: %w", err)
	}

	return Status{
		Record:     rec,
		WorkerLive: s.fleet.IsLive(tenantID),
		LiveChunks: chunks,
	}, nil
}
