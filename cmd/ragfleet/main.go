package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/config"
	dbRedis "github.com/kailas-cloud/ragfleet/internal/db/redis"
	"github.com/kailas-cloud/ragfleet/internal/domain"
	logpkg "github.com/kailas-cloud/ragfleet/internal/logger"
	"github.com/kailas-cloud/ragfleet/internal/metrics"
	chunkrepo "github.com/kailas-cloud/ragfleet/internal/repository/chunk"
	collectionrepo "github.com/kailas-cloud/ragfleet/internal/repository/collection"
	searchrepo "github.com/kailas-cloud/ragfleet/internal/repository/search"
	tenantrepo "github.com/kailas-cloud/ragfleet/internal/repository/tenant"
	"github.com/kailas-cloud/ragfleet/internal/supervisor"
	chiTransport "github.com/kailas-cloud/ragfleet/internal/transport/chi"
	openaiModel "github.com/kailas-cloud/ragfleet/internal/transport/openai"
	ingestuc "github.com/kailas-cloud/ragfleet/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/ragfleet/internal/usecase/query"
	tenantuc "github.com/kailas-cloud/ragfleet/internal/usecase/tenant"
	"github.com/kailas-cloud/ragfleet/internal/vault"
	"github.com/kailas-cloud/ragfleet/internal/version"
	"github.com/kailas-cloud/ragfleet/internal/worker"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragfleet API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register fleet metrics explicitly (no init())
	metrics.RegisterModelMetrics()
	metrics.RegisterWorkerMetrics()

	masterKey, err := cfg.Vault.MasterKey()
	if err != nil {
		logger.Fatal("Invalid vault master key", zap.Error(err))
	}
	credVault, err := vault.New(masterKey)
	if err != nil {
		logger.Fatal("Failed to create credential vault", zap.Error(err))
	}

	// Create repositories (domain-native, no adapters)
	tenantRepo := tenantrepo.New(store)
	collRepo := collectionrepo.New(store, cfg.Model.Dimensions).WithHNSW(collectionrepo.HNSWConfig{
		M:           cfg.Ingest.HNSWM,
		EFConstruct: cfg.Ingest.HNSWEFConstruct,
	})
	chunkRepo := chunkrepo.New(store)
	searchRepo := searchrepo.New(store)

	// Worker factory — each spawn assembles a per-tenant model client and
	// pipeline around the shared store.
	modelBase := openaiModel.Config{
		BaseURL:         cfg.Model.BaseURL,
		EmbeddingModel:  cfg.Model.EmbeddingModel,
		GenerationModel: cfg.Model.GenerationModel,
		Dimensions:      cfg.Model.Dimensions,
		Timeout:         time.Duration(cfg.Model.TimeoutSec) * time.Second,
		Logger:          logger,
	}
	factory := func(rec domain.TenantRecord, modelCredential string) (*worker.Worker, error) {
		modelCfg := modelBase
		modelCfg.APIKey = modelCredential
		modelCfg.Logger = logpkg.WithTenant(logger, rec.TenantID)
		model := openaiModel.NewTextModel(&modelCfg)

		ingestSvc, err := ingestuc.New(rec.TenantID, model, chunkRepo, collRepo, tenantRepo,
			ingestuc.Limits{
				MaxArchiveBytes: cfg.Ingest.MaxArchiveBytes,
				MaxFileBytes:    cfg.Ingest.MaxFileBytes,
				ChunkSize:       cfg.Ingest.ChunkSize,
				ChunkOverlap:    cfg.Ingest.ChunkOverlap,
				PoolSize:        cfg.Ingest.PoolSize,
			}, modelCfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("build ingest service: %w", err)
		}

		querySvc := queryuc.New(rec.TenantID, model, model, searchRepo, collRepo,
			queryuc.Limits{
				TopK:             cfg.Query.TopK,
				MaxContextChars:  cfg.Query.MaxContextChars,
				MaxQuestionChars: cfg.Query.MaxQuestionChars,
			}, modelCfg.Logger)

		return worker.New(rec.TenantID, rec.WorkerIdentity,
			ingestSvc, querySvc, collRepo, tenantRepo, modelCfg.Logger), nil
	}

	runtime := worker.NewTaskRuntime(logger)
	fleet := supervisor.New(tenantRepo, credVault, runtime, factory, supervisor.Config{
		SpawnTimeout:       time.Duration(cfg.Worker.SpawnTimeoutSec) * time.Second,
		StopGrace:          time.Duration(cfg.Worker.StopGraceSec) * time.Second,
		RespawnConcurrency: cfg.Worker.RespawnConcurrency,
	}, logger)

	// Bring the fleet back to its durable state, then sweep collections
	// orphaned by interrupted deletions.
	started, failed, err := fleet.RespawnAll(ctx)
	if err != nil {
		logger.Fatal("Failed to respawn workers", zap.Error(err))
	}
	logger.Info("Fleet respawned", zap.Int("started", started), zap.Int("failed", failed))

	if removed, err := fleet.ReconcileCollections(ctx, collRepo); err != nil {
		logger.Warn("Collection reconcile failed", zap.Error(err))
	} else if removed > 0 {
		logger.Info("Removed orphaned collections", zap.Int("removed", removed))
	}

	tenantSvc := tenantuc.New(tenantRepo, credVault, fleet, collRepo,
		worker.NewCredentialValidator(), openaiModel.NewValidator(modelBase), logger)

	// Create chi server
	server := chiTransport.NewServer(tenantSvc, fleet, workerDirectory{runtime},
		store, cfg.Ingest.MaxArchiveBytes, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	stopFleet(shutdownCtx, fleet, tenantRepo, logger)

	logger.Info("Server stopped gracefully")
}

// workerDirectory adapts the task runtime's concrete lookup to the
// transport's data-plane interface.
type workerDirectory struct {
	runtime *worker.TaskRuntime
}

func (d workerDirectory) Lookup(tenantID string) (chiTransport.TenantWorker, bool) {
	w, ok := d.runtime.Lookup(tenantID)
	if !ok {
		return nil, false
	}
	return w, true
}

// stopFleet terminates every live worker so registry statuses reflect the
// shutdown instead of reporting stale active workers on the next boot.
func stopFleet(ctx context.Context, fleet *supervisor.Supervisor, repo *tenantrepo.Repo, logger *zap.Logger) {
	recs, err := repo.ListActive(ctx)
	if err != nil {
		logger.Warn("Failed to list workers for shutdown", zap.Error(err))
		return
	}
	for _, rec := range recs {
		if !fleet.IsLive(rec.TenantID) {
			continue
		}
		if err := fleet.Stop(ctx, rec.TenantID); err != nil {
			logger.Warn("Failed to stop worker",
				zap.String("tenant_id", rec.TenantID), zap.Error(err))
		}
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
