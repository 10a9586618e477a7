package tenant

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// Hash field names for the tenant record.
const (
	fieldWorkerIdentity   = "worker_identity"
	fieldWorkerCredential = "worker_credential"
	fieldModelCredential  = "model_credential"
	fieldStatus           = "status"
	fieldDocumentCount    = "document_count"
	fieldChunkCount       = "chunk_count"
	fieldCreatedAt        = "created_at"
	fieldUpdatedAt        = "updated_at"
)

// recordToHash converts a tenant record to a map for HSET. Sealed
// credential blobs are base64-encoded; timestamps are unix millis.
func recordToHash(rec domain.TenantRecord) map[string]string {
	return map[string]string{
		fieldWorkerIdentity:   rec.WorkerIdentity,
		fieldWorkerCredential: base64.StdEncoding.EncodeToString(rec.WorkerCredential),
		fieldModelCredential:  base64.StdEncoding.EncodeToString(rec.ModelCredential),
		fieldStatus:           string(rec.Status),
		fieldDocumentCount:    strconv.FormatInt(rec.DocumentCount, 10),
		fieldChunkCount:       strconv.FormatInt(rec.ChunkCount, 10),
		fieldCreatedAt:        strconv.FormatInt(rec.CreatedAt.UnixMilli(), 10),
		fieldUpdatedAt:        strconv.FormatInt(rec.UpdatedAt.UnixMilli(), 10),
	}
}

// statusFields builds the partial update for a status transition.
func statusFields(status domain.Status) map[string]string {
	return map[string]string{
		fieldStatus:    string(status),
		fieldUpdatedAt: strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
}

// zeroCountFields builds the partial update that resets usage counters.
func zeroCountFields() map[string]string {
	return map[string]string{
		fieldDocumentCount: "0",
		fieldChunkCount:    "0",
		fieldUpdatedAt:     strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
}

// recordFromHash hydrates a tenant record from an HGETALL result map.
func recordFromHash(tenantID string, m map[string]string) (domain.TenantRecord, error) {
	workerCred, err := base64.StdEncoding.DecodeString(m[fieldWorkerCredential])
	if err != nil {
		return domain.TenantRecord{}, fmt.Errorf("invalid worker_credential: %w", err)
	}
	modelCred, err := base64.StdEncoding.DecodeString(m[fieldModelCredential])
	if err != nil {
		return domain.TenantRecord{}, fmt.Errorf("invalid model_credential: %w", err)
	}

	status := domain.Status(m[fieldStatus])
	if !status.Valid() {
		return domain.TenantRecord{}, fmt.Errorf("unknown status %q", m[fieldStatus])
	}

	rec := domain.TenantRecord{
		TenantID:         tenantID,
		WorkerIdentity:   m[fieldWorkerIdentity],
		WorkerCredential: workerCred,
		ModelCredential:  modelCred,
		Status:           status,
		DocumentCount:    parseInt64(m[fieldDocumentCount]),
		ChunkCount:       parseInt64(m[fieldChunkCount]),
		CreatedAt:        parseMillis(m[fieldCreatedAt]),
		UpdatedAt:        parseMillis(m[fieldUpdatedAt]),
	}
	return rec, nil
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseMillis(s string) time.Time {
	return time.UnixMilli(parseInt64(s))
}
