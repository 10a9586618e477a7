package domain

import (
	"fmt"
	"time"
)

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "ragfleet:"

// Status is the durable lifecycle state of a tenant.
type Status string

// Tenant lifecycle states. Transitions are supervisor-driven; the ingestion
// pipeline only ever touches the usage counters.
const (
	StatusActive  Status = "active"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// Valid reports whether s is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusStopped, StatusError:
		return true
	}
	return false
}

// TenantRecord is the durable registry entry for one tenant.
// Credentials are sealed by the vault; plaintext exists only inside a
// running worker.
type TenantRecord struct {
	TenantID         string
	WorkerIdentity   string
	WorkerCredential []byte // sealed
	ModelCredential  []byte // sealed
	Status           Status
	DocumentCount    int64
	ChunkCount       int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CollectionName derives the tenant's vector collection name. The mapping is
// deterministic: a tenant id uniquely determines its collection.
func CollectionName(tenantID string) string {
	return fmt.Sprintf("tenant_%s", tenantID)
}
