package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTenantNotFound signals a missing tenant record.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantExists signals a duplicate tenant registration.
	ErrTenantExists = errors.New("tenant already exists")
	// ErrSpawnFailed signals that a worker failed to start.
	ErrSpawnFailed = errors.New("worker spawn failed")
	// ErrWorkerUnavailable signals that no live worker exists for the tenant.
	ErrWorkerUnavailable = errors.New("worker unavailable")
	// ErrCredentialDecryption signals a failed secret unseal.
	ErrCredentialDecryption = errors.New("credential decryption failed")
	// ErrInvalidCredential signals a credential rejected by its validator.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrInvalidArchive signals a malformed upload container.
	ErrInvalidArchive = errors.New("invalid archive")
	// ErrPayloadTooLarge signals an upload above the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrNoDocuments signals an archive with no supported files.
	ErrNoDocuments = errors.New("no supported documents in archive")

	// ErrEmptyQuestion signals a blank question text.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrEmptyIndex signals a query against a collection with zero chunks.
	// It is a defined outcome, not a failure.
	ErrEmptyIndex = errors.New("empty index")
	// ErrQueryFailed signals a query that exhausted its retries.
	ErrQueryFailed = errors.New("query failed")
	// ErrModelProviderError signals an embedding or completion provider failure.
	ErrModelProviderError = errors.New("model provider error")
)

// SpawnError wraps ErrSpawnFailed with the tenant it concerns.
type SpawnError struct {
	TenantID string
	Err      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn worker for tenant %s: %v", e.TenantID, e.Err)
}

func (e *SpawnError) Unwrap() error { return ErrSpawnFailed }

// NewSpawnError creates a spawn error for a tenant.
func NewSpawnError(tenantID string, err error) error {
	return &SpawnError{TenantID: tenantID, Err: err}
}

// IsRetryable reports whether a model-provider failure is worth retrying.
// Credential and input errors are permanent; everything wrapped with
// ErrModelProviderError is treated as transient.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrInvalidCredential) {
		return false
	}
	return errors.Is(err, ErrModelProviderError)
}
