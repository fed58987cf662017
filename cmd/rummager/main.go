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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alphagov/rummager/internal/bets"
	"github.com/alphagov/rummager/internal/config"
	"github.com/alphagov/rummager/internal/engine"
	logpkg "github.com/alphagov/rummager/internal/logger"
	"github.com/alphagov/rummager/internal/metrics"
	"github.com/alphagov/rummager/internal/query"
	"github.com/alphagov/rummager/internal/registry"
	"github.com/alphagov/rummager/internal/searchparams"
	chiTransport "github.com/alphagov/rummager/internal/transport/chi"
	documentuc "github.com/alphagov/rummager/internal/usecase/document"
	searchuc "github.com/alphagov/rummager/internal/usecase/search"
	"github.com/alphagov/rummager/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rummager API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_base_url", cfg.Engine.BaseURL),
		zap.String("content_index", cfg.Engine.ContentIndex),
	)

	docSchema, err := cfg.BuildSchema()
	if err != nil {
		logger.Fatal("Failed to build document schema", zap.Error(err))
	}

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	openTimeout := time.Duration(cfg.Engine.OpenTimeoutSec) * time.Second
	readTimeout := time.Duration(cfg.Engine.ReadTimeoutSec) * time.Second

	content := mustEngineClient(logger, engine.Config{
		BaseURL:     cfg.Engine.BaseURL,
		Index:       cfg.Engine.ContentIndex,
		OpenTimeout: openTimeout,
		ReadTimeout: readTimeout,
		Logger:      logger,
	})
	metasearch := mustEngineClient(logger, engine.Config{
		BaseURL:     cfg.Engine.BaseURL,
		Index:       cfg.Engine.MetasearchIndex,
		OpenTimeout: openTimeout,
		ReadTimeout: readTimeout,
		Logger:      logger,
	})
	spelling := mustEngineClient(logger, engine.Config{
		BaseURL:     cfg.Engine.BaseURL,
		Index:       cfg.Engine.SpellingIndex,
		OpenTimeout: openTimeout,
		ReadTimeout: readTimeout,
		Logger:      logger,
	})

	registries := registry.NewRegistries(
		content,
		registry.SystemClock{},
		time.Duration(cfg.Registry.LifetimeHours)*time.Hour,
		logger,
	)

	builder := query.NewBuilder(cfg.Boosts)
	betChecker := bets.NewChecker(metasearch)
	promoter := engine.NewPromoter(cfg.Promoted)

	searchSvc := searchuc.New(
		content, spelling, betChecker, builder, registries,
		cfg.Search.SpellingIgnoreTerms,
	)
	docSvc := documentuc.New(content, docSchema, promoter)

	parser := searchparams.NewParser(docSchema).
		WithLimits(cfg.Search.MaxCount, cfg.Search.MaxExampleCount)

	server := chiTransport.NewServer(searchSvc, docSvc, parser, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

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

func mustEngineClient(logger *zap.Logger, cfg engine.Config) *engine.Client {
	client, err := engine.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to create engine client", zap.String("index", cfg.Index), zap.Error(err))
	}
	return client
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
