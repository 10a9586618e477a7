// Package chi exposes the tenant control plane and the per-tenant data
// plane over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/domain/batch"
	"github.com/kailas-cloud/ragfleet/internal/usecase/query"
	tenantuc "github.com/kailas-cloud/ragfleet/internal/usecase/tenant"
	"github.com/kailas-cloud/ragfleet/internal/worker"
)

// TenantService is the control-plane contract.
type TenantService interface {
	Register(ctx context.Context, tenantID, workerCred, modelCred string) (domain.TenantRecord, error)
	Delete(ctx context.Context, tenantID string) error
	Status(ctx context.Context, tenantID string) (tenantuc.Status, error)
}

// Fleet drives worker lifecycle commands.
type Fleet interface {
	Stop(ctx context.Context, tenantID string) error
	Restart(ctx context.Context, tenantID string) error
}

// TenantWorker is the data-plane contract of one live worker.
type TenantWorker interface {
	Ingest(ctx context.Context, archive []byte) (batch.Result, error)
	Query(ctx context.Context, question string) (query.Answer, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (worker.Stats, error)
}

// Directory routes data-plane requests to live workers.
type Directory interface {
	Lookup(tenantID string) (TenantWorker, bool)
}

// Pinger reports store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API over the tenant fleet.
type Server struct {
	tenants       TenantService
	fleet         Fleet
	directory     Directory
	pinger        Pinger
	maxUploadSize int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	tenants TenantService,
	fleet Fleet,
	directory Directory,
	pinger Pinger,
	maxUploadSize int64,
	logger *zap.Logger,
) *Server {
	s := &Server{
		tenants:       tenants,
		fleet:         fleet,
		directory:     directory,
		pinger:        pinger,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTenantNotFound, http.StatusNotFound, "tenant_not_found"),
		sentinelHandler(domain.ErrTenantExists, http.StatusConflict, "tenant_already_exists"),
		sentinelHandler(domain.ErrInvalidCredential, http.StatusBadRequest, "invalid_credential"),
		sentinelHandler(domain.ErrEmptyQuestion, http.StatusBadRequest, "empty_question"),
		sentinelHandler(domain.ErrInvalidArchive, http.StatusBadRequest, "invalid_archive"),
		sentinelHandler(domain.ErrNoDocuments, http.StatusBadRequest, "no_documents"),
		sentinelHandler(domain.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large"),
		sentinelHandler(domain.ErrWorkerUnavailable, http.StatusServiceUnavailable, "worker_unavailable"),
		sentinelHandler(domain.ErrSpawnFailed, http.StatusBadGateway, "spawn_failed"),
		sentinelHandler(domain.ErrQueryFailed, http.StatusBadGateway, "query_failed"),
		sentinelHandler(domain.ErrModelProviderError, http.StatusBadGateway, "model_provider_error"),
	}
	return s
}

// Mount registers all routes on the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metricsHandler)

	r.Route("/tenants", func(r chi.Router) {
		r.Post("/", s.registerTenant)
		r.Route("/{tenantID}", func(r chi.Router) {
			r.Get("/", s.getTenant)
			r.Delete("/", s.deleteTenant)
			r.Post("/stop", s.stopTenant)
			r.Post("/restart", s.restartTenant)

			r.Post("/documents", s.uploadDocuments)
			r.Post("/query", s.queryTenant)
			r.Post("/clear", s.clearTenant)
			r.Get("/stats", s.tenantStats)
		})
	})
}

// registerTenant handles POST /tenants.
func (s *Server) registerTenant(w http.ResponseWriter, r *http.Request) {
	var req registerTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.TenantID == "" || req.WorkerCredential == "" || req.ModelCredential == "" {
		writeError(w, http.StatusBadRequest, "validation_failed",
			"tenant_id, worker_credential and model_credential are required")
		return
	}

	rec, err := s.tenants.Register(r.Context(), req.TenantID, req.WorkerCredential, req.ModelCredential)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tenantFromRecord(rec, rec.Status == domain.StatusActive))
}

// getTenant handles GET /tenants/{tenantID}.
func (s *Server) getTenant(w http.ResponseWriter, r *http.Request) {
	st, err := s.tenants.Status(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenantFromStatus(st))
}

// deleteTenant handles DELETE /tenants/{tenantID}.
func (s *Server) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.tenants.Delete(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stopTenant handles POST /tenants/{tenantID}/stop.
func (s *Server) stopTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.fleet.Stop(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// restartTenant handles POST /tenants/{tenantID}/restart.
func (s *Server) restartTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.fleet.Restart(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadDocuments handles POST /tenants/{tenantID}/documents. The archive
// arrives either as a multipart "archive" part or as the raw request body.
func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	tw, ok := s.directory.Lookup(chi.URLParam(r, "tenantID"))
	if !ok {
		s.handleDomainError(w, domain.ErrWorkerUnavailable)
		return
	}

	archive, err := s.readArchive(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	result, err := tw.Ingest(r.Context(), archive)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ingestFromResult(result))
}

// queryTenant handles POST /tenants/{tenantID}/query.
func (s *Server) queryTenant(w http.ResponseWriter, r *http.Request) {
	tw, ok := s.directory.Lookup(chi.URLParam(r, "tenantID"))
	if !ok {
		s.handleDomainError(w, domain.ErrWorkerUnavailable)
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	answer, err := tw.Query(r.Context(), req.Question)
	if errors.Is(err, domain.ErrEmptyIndex) {
		writeJSON(w, http.StatusOK, queryResponse{Sources: []string{}, EmptyIndex: true})
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, queryResponse{Answer: answer.Text, Sources: sources})
}

// clearTenant handles POST /tenants/{tenantID}/clear.
func (s *Server) clearTenant(w http.ResponseWriter, r *http.Request) {
	tw, ok := s.directory.Lookup(chi.URLParam(r, "tenantID"))
	if !ok {
		s.handleDomainError(w, domain.ErrWorkerUnavailable)
		return
	}

	if err := tw.Clear(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tenantStats handles GET /tenants/{tenantID}/stats.
func (s *Server) tenantStats(w http.ResponseWriter, r *http.Request) {
	tw, ok := s.directory.Lookup(chi.URLParam(r, "tenantID"))
	if !ok {
		s.handleDomainError(w, domain.ErrWorkerUnavailable)
		return
	}

	st, err := tw.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsFromWorker(st))
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	status, httpStatus := "healthy", http.StatusOK

	if err := s.pinger.Ping(r.Context()); err != nil {
		checks["database"] = "failed"
		status, httpStatus = "unhealthy", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// metricsHandler handles GET /metrics.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// readArchive extracts the upload bytes, enforcing the size limit while
// reading so an oversized body never buffers fully.
func (s *Server) readArchive(r *http.Request) ([]byte, error) {
	body := io.Reader(r.Body)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
			if errors.Is(err, multipart.ErrMessageTooLarge) {
				return nil, domain.ErrPayloadTooLarge
			}
			return nil, domain.ErrInvalidArchive
		}
		file, _, err := r.FormFile("archive")
		if err != nil {
			return nil, domain.ErrInvalidArchive
		}
		defer file.Close()
		body = file
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxUploadSize+1))
	if err != nil {
		return nil, domain.ErrInvalidArchive
	}
	if int64(len(data)) > s.maxUploadSize {
		return nil, domain.ErrPayloadTooLarge
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTenantNotFound,
		domain.ErrTenantExists,
		domain.ErrInvalidCredential,
		domain.ErrEmptyQuestion,
		domain.ErrInvalidArchive,
		domain.ErrNoDocuments,
		domain.ErrPayloadTooLarge,
		domain.ErrWorkerUnavailable,
		domain.ErrSpawnFailed,
		domain.ErrQueryFailed,
		domain.ErrModelProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
