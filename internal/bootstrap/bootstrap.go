// Package bootstrap builds the adapters shared by the API server and the
// indexer CLI from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/auth"
	"github.com/kailas-cloud/patentsearch/internal/config"
	dbValkey "github.com/kailas-cloud/patentsearch/internal/db/valkey"
	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/metrics"
	"github.com/kailas-cloud/patentsearch/internal/repository/embcache"
	"github.com/kailas-cloud/patentsearch/internal/repository/lexical"
	vectorrepo "github.com/kailas-cloud/patentsearch/internal/repository/vector"
	openaiEmb "github.com/kailas-cloud/patentsearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/patentsearch/internal/usecase/embedding"
	searchuc "github.com/kailas-cloud/patentsearch/internal/usecase/search"
	vectoruc "github.com/kailas-cloud/patentsearch/internal/usecase/vector"
	"github.com/kailas-cloud/patentsearch/internal/warehouse"
	"github.com/kailas-cloud/patentsearch/internal/warehouse/bigquery"
	"github.com/kailas-cloud/patentsearch/internal/warehouse/sqlite"
)

// OpenValkey connects to Valkey and waits until it answers.
func OpenValkey(ctx context.Context, cfg config.DatabaseConfig) (*dbValkey.Store, error) {
	store, err := dbValkey.NewStore(dbValkey.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create valkey store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("valkey not ready: %w", err)
	}
	return store, nil
}

// OpenWarehouse opens the configured lexical backend.
func OpenWarehouse(ctx context.Context, cfg config.WarehouseConfig) (warehouse.Querier, error) {
	switch cfg.Driver {
	case config.WarehouseBigQuery:
		c, err := bigquery.New(ctx, bigquery.Config{
			Project:         cfg.Project,
			Dataset:         cfg.Dataset,
			Table:           cfg.Table,
			Location:        cfg.Location,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
			Timeout:         time.Duration(cfg.TimeoutSec) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("open bigquery: %w", err)
		}
		return c, nil
	case config.WarehouseSQLite:
		s, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown warehouse driver %q", cfg.Driver)
	}
}

// Lexical builds the warehouse retrieval repository.
func Lexical(wh warehouse.Querier, cfg *config.Config) *lexical.Repo {
	return lexical.New(wh, lexical.Options{
		MaxLimit:    cfg.Lexical.MaxLimit,
		CitationCap: cfg.Lexical.CitationCap,
		TopN:        cfg.Lexical.TopN,
		URLBase:     cfg.Patent.URLBase,
	})
}

// Embedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
// The bare provider is returned too so health checks bypass the cache.
// A nil store disables caching.
func Embedder(
	cfg config.EmbeddingConfig, store *dbValkey.Store, logger *zap.Logger,
) (*openaiEmb.Embedder, domain.Embedder) {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache && store != nil {
		embedder = embcache.New(embedder, store, embcache.Options{
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			TTL:        time.Duration(cfg.CacheTTLH) * time.Hour,
			MaxChars:   cfg.CacheChars,
			Outcomes:   metrics.EmbeddingCacheTotal,
		}, logger)
	}

	return base, embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.Options{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		SlowAfter: time.Duration(cfg.SlowMs) * time.Millisecond,
	}, logger)
}

// Vector builds the vector index repository and the service on top of it.
func Vector(embedder domain.Embedder, store *dbValkey.Store, cfg *config.Config, logger *zap.Logger) *vectoruc.Service {
	index := vectorrepo.New(store, vectorrepo.Options{
		IndexName:   cfg.Vector.IndexName,
		KeyPrefix:   cfg.Vector.KeyPrefix,
		Dimensions:  cfg.Embedding.Dimensions,
		M:           cfg.Vector.HNSWM,
		EFConstruct: cfg.Vector.HNSWEFConstruct,
		EFRuntime:   cfg.Vector.HNSWEFRuntime,
	})
	return vectoruc.New(embedder, index, vectoruc.Options{
		UpsertBatchSize: cfg.Vector.UpsertBatchSize,
		EmbedRPS:        cfg.Vector.EmbedRPS,
		UpsertRPS:       cfg.Vector.UpsertRPS,
	}, logger)
}

// SearchPolicy maps the search config section onto the orchestrator policy.
func SearchPolicy(cfg config.SearchConfig) searchuc.Policy {
	return searchuc.Policy{
		SemanticOverFetch:    cfg.SemanticOverFetch,
		SemanticShare:        cfg.SemanticShare,
		KeywordShare:         cfg.KeywordShare,
		HybridBoost:          cfg.HybridBoost,
		MinSimilarity:        cfg.MinSimilarity,
		RelatedMinSimilarity: cfg.RelatedMinSimilarity,
		RelatedCap:           cfg.RelatedCap,
		QuickLimit:           cfg.QuickLimit,
		RequestTimeout:       cfg.RequestTimeout(),
		SemanticTimeout:      cfg.SemanticTimeout(),
		BatchWorkers:         cfg.BatchWorkers,
	}
}

// Verifier returns nil when no credentials are configured, which leaves
// the API open to anonymous callers.
func Verifier(ctx context.Context, cfg config.AuthConfig) auth.Verifier {
	if !cfg.Enabled() {
		return nil
	}

	var chain auth.Chain
	keys := make([]auth.StaticKey, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		keys = append(keys, auth.StaticKey{Key: k.Key, Subject: k.Subject, Role: k.Role})
	}
	if static := auth.NewStaticKeys(keys); static.Len() > 0 {
		chain = append(chain, static)
	}

	if in := cfg.Introspection; in.URL != "" {
		chain = append(chain, auth.NewIntrospector(ctx, auth.IntrospectionConfig{
			URL:          in.URL,
			ClientID:     in.ClientID,
			ClientSecret: in.ClientSecret,
			TokenURL:     in.TokenURL,
			Scopes:       in.Scopes,
			RoleClaim:    in.RoleClaim,
			CacheTTL:     time.Duration(in.CacheTTLSec) * time.Second,
			Timeout:      time.Duration(in.TimeoutSec) * time.Second,
		}))
	}
	return chain
}

// EmbeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
// Embedders without a HealthCheck method are reported healthy.
type EmbeddingHealthChecker struct {
	embedder domain.Embedder
}

// NewEmbeddingHealthChecker creates the wrapper.
func NewEmbeddingHealthChecker(embedder domain.Embedder) *EmbeddingHealthChecker {
	return &EmbeddingHealthChecker{embedder: embedder}
}

// HealthCheck delegates to the embedder when it supports health checks.
func (h *EmbeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
