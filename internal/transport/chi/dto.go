package chi

import (
	"time"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/domain/batch"
	tenantuc "github.com/kailas-cloud/ragfleet/internal/usecase/tenant"
	"github.com/kailas-cloud/ragfleet/internal/worker"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type registerTenantRequest struct {
	TenantID         string `json:"tenant_id"`
	WorkerCredential string `json:"worker_credential"`
	ModelCredential  string `json:"model_credential"`
}

type tenantResponse struct {
	TenantID      string    `json:"tenant_id"`
	Identity      string    `json:"identity"`
	Status        string    `json:"status"`
	WorkerLive    bool      `json:"worker_live"`
	DocumentCount int64     `json:"document_count"`
	ChunkCount    int64     `json:"chunk_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func tenantFromRecord(rec domain.TenantRecord, live bool) tenantResponse {
	return tenantResponse{
		TenantID:      rec.TenantID,
		Identity:      rec.WorkerIdentity,
		Status:        string(rec.Status),
		WorkerLive:    live,
		DocumentCount: rec.DocumentCount,
		ChunkCount:    rec.ChunkCount,
		CreatedAt:     rec.CreatedAt.UTC(),
		UpdatedAt:     rec.UpdatedAt.UTC(),
	}
}

func tenantFromStatus(st tenantuc.Status) tenantResponse {
	resp := tenantFromRecord(st.Record, st.WorkerLive)
	resp.ChunkCount = st.LiveChunks
	return resp
}

type fileResultResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Chunks int    `json:"chunks,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ingestResponse struct {
	Files            []fileResultResponse `json:"files"`
	DocumentsIndexed int64                `json:"documents_indexed"`
	ChunksAdded      int64                `json:"chunks_added"`
	Failed           int                  `json:"failed"`
	Skipped          int                  `json:"skipped"`
}

func ingestFromResult(result batch.Result) ingestResponse {
	files := make([]fileResultResponse, len(result.Files))
	for i, f := range result.Files {
		files[i] = fileResultResponse{
			Name:   f.Name(),
			Status: string(f.Status()),
			Chunks: f.Chunks(),
		}
		if f.Err() != nil {
			files[i].Error = f.Err().Error()
		}
	}
	return ingestResponse{
		Files:            files,
		DocumentsIndexed: result.DocumentsIndexed(),
		ChunksAdded:      result.ChunksAdded(),
		Failed:           result.Failed(),
		Skipped:          result.Skipped(),
	}
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	EmptyIndex bool     `json:"empty_index,omitempty"`
}

type statsResponse struct {
	DocumentCount int64 `json:"document_count"`
	ChunkCount    int64 `json:"chunk_count"`
}

func statsFromWorker(st worker.Stats) statsResponse {
	return statsResponse{
		DocumentCount: st.DocumentCount,
		ChunkCount:    st.ChunkCount,
	}
}
