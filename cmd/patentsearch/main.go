package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/bootstrap"
	"github.com/kailas-cloud/patentsearch/internal/config"
	logpkg "github.com/kailas-cloud/patentsearch/internal/logger"
	"github.com/kailas-cloud/patentsearch/internal/metrics"
	"github.com/kailas-cloud/patentsearch/internal/repository/ratelimit"
	chiTransport "github.com/kailas-cloud/patentsearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/patentsearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/patentsearch/internal/usecase/indexing"
	landscapeuc "github.com/kailas-cloud/patentsearch/internal/usecase/landscape"
	searchuc "github.com/kailas-cloud/patentsearch/internal/usecase/search"
	"github.com/kailas-cloud/patentsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "api")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting patentsearch API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("warehouse", cfg.Warehouse.Driver),
		zap.Strings("valkey_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()
	store, err := bootstrap.OpenValkey(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Valkey unavailable", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to valkey")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	wh, err := bootstrap.OpenWarehouse(ctx, cfg.Warehouse)
	if err != nil {
		logger.Fatal("Failed to open warehouse", zap.Error(err))
	}
	defer func() { _ = wh.Close() }()

	provider, embedder := bootstrap.Embedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)

	lex := bootstrap.Lexical(wh, &cfg)
	vec := bootstrap.Vector(embedder, store, &cfg, logger)

	searchSvc, err := searchuc.New(lex, vec, bootstrap.SearchPolicy(cfg.Search), logger)
	if err != nil {
		logger.Fatal("Failed to create search service", zap.Error(err))
	}
	defer searchSvc.Close()

	landscapeSvc := landscapeuc.New(lex, searchSvc, landscapeuc.Options{
		SampleSize:      cfg.Landscape.SampleSize,
		MinClusterSize:  cfg.Landscape.MinClusterSize,
		MaxClusters:     cfg.Landscape.MaxClusters,
		ClusterPatents:  cfg.Landscape.ClusterPatents,
		ClusterKeywords: cfg.Landscape.ClusterKeywords,
		NetworkNodes:    cfg.Landscape.NetworkNodes,
	}, logger)

	indexingSvc := indexinguc.New(lex, vec, indexinguc.Options{
		BatchSize:   cfg.Indexing.BatchSize,
		MaxRecords:  cfg.Indexing.MaxRecords,
		Retention:   time.Duration(cfg.Indexing.JobRetentionMin) * time.Minute,
		MaxFinished: cfg.Indexing.MaxFinishedJobs,
	}, logger)
	defer indexingSvc.Close()

	healthSvc := healthuc.New(store, lex, bootstrap.NewEmbeddingHealthChecker(provider), vec)

	verifier := bootstrap.Verifier(ctx, cfg.Auth)
	if verifier == nil {
		logger.Warn("Authentication disabled: no api keys or introspection configured")
	}

	var limiter chiTransport.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = ratelimit.New(store, cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSec)*time.Second)
		logger.Info("Rate limiting enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Int("window_sec", cfg.RateLimit.WindowSec),
		)
	}

	server := chiTransport.NewServer(searchSvc, landscapeSvc, lex, indexingSvc, vec, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		Verifier: verifier,
		Limiter:  limiter,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
