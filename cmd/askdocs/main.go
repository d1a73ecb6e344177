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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/db"
	dbRedis "github.com/askdocs/askdocs/internal/db/redis"
	"github.com/askdocs/askdocs/internal/domain"
	logpkg "github.com/askdocs/askdocs/internal/logger"
	"github.com/askdocs/askdocs/internal/metrics"
	budgetrepo "github.com/askdocs/askdocs/internal/repository/budget"
	"github.com/askdocs/askdocs/internal/repository/embcache"
	"github.com/askdocs/askdocs/internal/repository/namespace"
	"github.com/askdocs/askdocs/internal/repository/qdrantindex"
	"github.com/askdocs/askdocs/internal/storage/sqlite"
	chiTransport "github.com/askdocs/askdocs/internal/transport/chi"
	llmTransport "github.com/askdocs/askdocs/internal/transport/llm"
	ollamaEmb "github.com/askdocs/askdocs/internal/transport/ollama"
	openaiEmb "github.com/askdocs/askdocs/internal/transport/openai"
	answeruc "github.com/askdocs/askdocs/internal/usecase/answer"
	chatuc "github.com/askdocs/askdocs/internal/usecase/chat"
	embeddinguc "github.com/askdocs/askdocs/internal/usecase/embedding"
	healthuc "github.com/askdocs/askdocs/internal/usecase/health"
	indexinguc "github.com/askdocs/askdocs/internal/usecase/indexing"
	routeruc "github.com/askdocs/askdocs/internal/usecase/router"
	"github.com/askdocs/askdocs/internal/version"
)

// vectorBackend is the union of the ingestion and routing index surfaces.
type vectorBackend interface {
	indexinguc.VectorIndex
	routeruc.VectorIndex
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

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

	logger.Info("Starting askdocs API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_driver", cfg.Vector.Driver),
		zap.Strings("vector_addrs", cfg.Vector.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	// Metadata store
	metaStore, err := sqlite.Open(cfg.SQLite.Path)
	if err != nil {
		logger.Fatal("Failed to open metadata store", zap.Error(err))
	}
	defer metaStore.Close()
	logger.Info("Metadata store ready", zap.String("path", metaStore.Path()))

	ctx := context.Background()

	// Vector backend. The redis driver doubles as the KV store for the
	// embedding cache and budget counters; qdrant runs without them.
	var vectors vectorBackend
	var vectorPinger healthuc.Pinger
	var kv db.Store
	switch cfg.Vector.Driver {
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Vector.Addrs,
			Password: cfg.Vector.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Vector.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		kv = store
		vectors = namespace.New(store, namespace.Config{
			HNSWM:           cfg.Vector.HNSWM,
			HNSWEFConstruct: cfg.Vector.HNSWEFConstruct,
		})
		vectorPinger = store
	case "qdrant":
		repo, err := qdrantindex.New(cfg.Vector.Addrs[0], qdrantindex.Config{
			HNSWM:           cfg.Vector.HNSWM,
			HNSWEFConstruct: cfg.Vector.HNSWEFConstruct,
		})
		if err != nil {
			logger.Fatal("Failed to create qdrant client", zap.Error(err))
		}
		defer repo.Close()
		vectors = repo
		vectorPinger = repo
	default:
		logger.Fatal("Unknown vector driver", zap.String("driver", cfg.Vector.Driver))
	}
	logger.Info("Connected to vector store")

	// Single BudgetTracker shared by both embedders.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := cfg.Embedding.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			cfg.Embedding.Provider, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		)
		if kv != nil {
			// Connect persistence store — loads current counters from DB.
			budget.WithStore(ctx, budgetrepo.New(kv, 48*time.Hour, 62*24*time.Hour))
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	docEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, kv, budgetChecker, logger)
	queryEmbedder := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, kv, budgetChecker, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	model, err := llmTransport.New(&llmTransport.Config{
		APIKeys:     cfg.Model.APIKeys,
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.Name,
		MaxTokens:   cfg.Model.MaxTokens,
		Temperature: cfg.Model.Temperature,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Failed to create chat model client", zap.Error(err))
	}

	// Use case services
	indexSvc := indexinguc.New(metaStore, vectors, docEmbedder, indexinguc.Config{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		Dimensions:   cfg.Embedding.Dimensions,
	}, logger)
	routerSvc := routeruc.New(metaStore, vectors, queryEmbedder, logger)
	composer := answeruc.NewComposer(model, logger)
	chatSvc := chatuc.New(routerSvc, composer, metaStore, cfg.Routing.TopK, logger)
	healthSvc := healthuc.New(metaStore, vectorPinger, newEmbeddingHealthChecker(docEmbedder))

	server := chiTransport.NewServer(indexSvc, chatSvc, healthSvc, logger)

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	kv db.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	var embedder domain.Embedder
	switch cfg.Provider {
	case "ollama":
		embedder = ollamaEmb.NewEmbedder(cfg.BaseURL, cfg.Model, 60*time.Second)
	default:
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	}

	// Cached
	if cfg.Cache && kv != nil {
		embedder = embcache.New(embedder, kv, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (budget + metrics)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Provider, cfg.Model, budget, logger,
	)

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
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

			requestID := chiMiddleware.GetReqID(r.Context())
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
