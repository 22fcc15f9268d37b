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

	"github.com/assochq/membersearch/internal/config"
	"github.com/assochq/membersearch/internal/db"
	dbMemory "github.com/assochq/membersearch/internal/db/memory"
	dbRedis "github.com/assochq/membersearch/internal/db/redis"
	"github.com/assochq/membersearch/internal/domain"
	"github.com/assochq/membersearch/internal/index"
	logpkg "github.com/assochq/membersearch/internal/logger"
	"github.com/assochq/membersearch/internal/metrics"
	contentrepo "github.com/assochq/membersearch/internal/repository/content"
	querylogrepo "github.com/assochq/membersearch/internal/repository/querylog"
	chiTransport "github.com/assochq/membersearch/internal/transport/chi"
	openaiEmb "github.com/assochq/membersearch/internal/transport/openai"
	"github.com/assochq/membersearch/internal/usecase/health"
	ingestuc "github.com/assochq/membersearch/internal/usecase/ingest"
	maintenanceuc "github.com/assochq/membersearch/internal/usecase/maintenance"
	queryloguc "github.com/assochq/membersearch/internal/usecase/querylog"
	searchuc "github.com/assochq/membersearch/internal/usecase/search"
	"github.com/assochq/membersearch/internal/version"
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

	logger.Info("Starting membersearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
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

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Query-text embedder is optional: without one, semantic and hybrid
	// requests must carry an explicit vector.
	var embedder domain.Embedder
	var embeddingChecker health.EmbeddingChecker
	if cfg.Embedding.APIKey != "" {
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Index.Dimensions,
			Logger:     logger,
		})
		embedder = e
		embeddingChecker = e
		logger.Info("Query embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Index.Dimensions),
		)
	}

	// Repositories
	contentRepo := contentrepo.New(store)
	querylogRepo := querylogrepo.New(store)

	// In-process index engine, bootstrapped from durable storage
	engine, err := index.NewEngine(cfg.Index.Dimensions, cfg.Index.Probes, logger)
	if err != nil {
		logger.Fatal("Failed to create index engine", zap.Error(err))
	}
	defer func() { _ = engine.Close() }()

	rows, skipped, err := contentRepo.LoadAll(ctx)
	if err != nil {
		logger.Fatal("Failed to load content rows", zap.Error(err))
	}
	if err := engine.Bootstrap(rows); err != nil {
		logger.Fatal("Failed to bootstrap index", zap.Error(err))
	}
	stats := engine.Stats()
	metrics.IndexVectors.Set(float64(stats.VectorsIndexed))
	logger.Info("Index bootstrapped",
		zap.Int("rows", stats.Rows),
		zap.Int("vectors", stats.VectorsIndexed),
		zap.Int("skipped_rows", skipped),
	)

	// Use case services
	ingestSvc := ingestuc.New(contentRepo, engine, cfg.Index.Dimensions)
	searchSvc := searchuc.New(engine)
	querylogSvc := queryloguc.New(querylogRepo)
	maintenanceSvc := maintenanceuc.New(engine,
		time.Duration(cfg.Index.RebuildIntervalSec)*time.Second, logger)
	healthSvc := health.New(store, embeddingChecker, engine)

	// Background rebuild loop
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	go maintenanceSvc.Run(loopCtx)

	// HTTP server
	server := chiTransport.NewServer(
		ingestSvc, searchSvc, querylogSvc, maintenanceSvc, healthSvc, embedder,
		chiTransport.Config{
			KeywordWeight:  cfg.Search.KeywordWeight,
			SemanticWeight: cfg.Search.SemanticWeight,
		},
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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
	stopLoop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
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
