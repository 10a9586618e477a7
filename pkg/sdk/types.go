package ragfleet

import "time"

// Tenant is the server's view of one registered tenant.
type Tenant struct {
	TenantID      string    `json:"tenant_id"`
	Identity      string    `json:"identity"`
	Status        string    `json:"status"`
	WorkerLive    bool      `json:"worker_live"`
	DocumentCount int64     `json:"document_count"`
	ChunkCount    int64     `json:"chunk_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FileOutcome is the per-file result of one upload.
type FileOutcome struct {
	Name   string `json:"name"`
	Status string `json:"status"` // indexed / failed / skipped
	Chunks int    `json:"chunks,omitempty"`
	Error  string `json:"error,omitempty"`
}

// IngestReport summarizes one archive upload.
type IngestReport struct {
	Files            []FileOutcome `json:"files"`
	DocumentsIndexed int64         `json:"documents_indexed"`
	ChunksAdded      int64         `json:"chunks_added"`
	Failed           int           `json:"failed"`
	Skipped          int           `json:"skipped"`
}

// QueryResult is the answer to one question.
type QueryResult struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	EmptyIndex bool     `json:"empty_index,omitempty"`
}

// Stats holds a tenant's usage counters.
type Stats struct {
	DocumentCount int64 `json:"document_count"`
	ChunkCount    int64 `json:"chunk_count"`
}
