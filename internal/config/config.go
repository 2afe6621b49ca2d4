package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Warehouse drivers.
const (
	WarehouseSQLite   = "sqlite"
	WarehouseBigQuery = "bigquery"
)

// Config holds the patentsearch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Search    SearchConfig    `yaml:"search"`
	Lexical   LexicalConfig   `yaml:"lexical"`
	Landscape LandscapeConfig `yaml:"landscape"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Patent    PatentConfig    `yaml:"patent"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// APIKeyConfig is a static API key and the identity it grants.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	Subject string `yaml:"subject"`
	Role    string `yaml:"role"` // user (default) or admin
}

// IntrospectionConfig points at an OAuth2 token introspection endpoint.
// Empty URL disables introspection.
type IntrospectionConfig struct {
	URL          string   `yaml:"url"`
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
	RoleClaim    string   `yaml:"role_claim"`
	CacheTTLSec  int      `yaml:"cache_ttl_sec"`
	TimeoutSec   int      `yaml:"timeout_sec"`
}

// AuthConfig holds API authentication settings. With no keys and no
// introspection URL, authentication is disabled.
type AuthConfig struct {
	APIKeys       []APIKeyConfig      `yaml:"api_keys"`
	Introspection IntrospectionConfig `yaml:"introspection"`
}

// Enabled reports whether any verifier is configured.
func (a AuthConfig) Enabled() bool {
	for _, k := range a.APIKeys {
		if k.Key != "" {
			return true
		}
	}
	return a.Introspection.URL != ""
}

// RateLimitConfig holds per-identity request limits. Zero requests disables limiting.
type RateLimitConfig struct {
	Requests  int `yaml:"requests"`
	WindowSec int `yaml:"window_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Valkey connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// WarehouseConfig selects and configures the lexical backend.
type WarehouseConfig struct {
	Driver string `yaml:"driver"` // sqlite (default), bigquery
	// SQLite
	Path string `yaml:"path"`
	// BigQuery
	Project         string `yaml:"project"`
	Dataset         string `yaml:"dataset"`
	Table           string `yaml:"table"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
	TimeoutSec      int    `yaml:"timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Cache      bool   `yaml:"cache"`
	CacheTTLH  int    `yaml:"cache_ttl_hours"`
	CacheChars int    `yaml:"cache_max_chars"`
	MaxRetries int    `yaml:"max_retries"`
	SlowMs     int    `yaml:"slow_ms"`
}

// VectorConfig holds HNSW index layout and indexing throughput settings.
type VectorConfig struct {
	IndexName       string  `yaml:"index_name"`
	KeyPrefix       string  `yaml:"key_prefix"`
	HNSWM           int     `yaml:"hnsw_m"`
	HNSWEFConstruct int     `yaml:"hnsw_ef_construction"`
	HNSWEFRuntime   int     `yaml:"hnsw_ef_runtime"` // 0 = server default
	UpsertBatchSize int     `yaml:"upsert_batch_size"`
	EmbedRPS        float64 `yaml:"embed_rps"`  // 0 = unlimited
	UpsertRPS       float64 `yaml:"upsert_rps"` // 0 = unlimited
}

// SearchConfig holds the ranking and fallback policy. Zero fields take the
// service defaults; a negative timeout disables it.
type SearchConfig struct {
	SemanticOverFetch    int     `yaml:"semantic_over_fetch"`
	SemanticShare        float64 `yaml:"semantic_share"`
	KeywordShare         float64 `yaml:"keyword_share"`
	HybridBoost          float64 `yaml:"hybrid_boost"`
	MinSimilarity        float64 `yaml:"min_similarity"`
	RelatedMinSimilarity float64 `yaml:"related_min_similarity"`
	RelatedCap           int     `yaml:"related_cap"`
	QuickLimit           int     `yaml:"quick_limit"`
	RequestTimeoutMs     int     `yaml:"request_timeout_ms"`
	SemanticTimeoutMs    int     `yaml:"semantic_timeout_ms"`
	BatchWorkers         int     `yaml:"batch_workers"`
}

// LexicalConfig caps warehouse result sizes.
type LexicalConfig struct {
	MaxLimit    int `yaml:"max_limit"`
	CitationCap int `yaml:"citation_cap"`
	TopN        int `yaml:"top_n"`
}

// LandscapeConfig bounds landscape payloads.
type LandscapeConfig struct {
	SampleSize      int `yaml:"sample_size"`
	MinClusterSize  int `yaml:"min_cluster_size"`
	MaxClusters     int `yaml:"max_clusters"`
	ClusterPatents  int `yaml:"cluster_patents"`
	ClusterKeywords int `yaml:"cluster_keywords"`
	NetworkNodes    int `yaml:"network_nodes"`
}

// IndexingConfig holds bulk indexing job defaults.
type IndexingConfig struct {
	BatchSize  int `yaml:"batch_size"`
	MaxRecords int `yaml:"max_records"`
	// JobRetentionMin keeps finished background jobs queryable this long.
	JobRetentionMin int `yaml:"job_retention_min"`
	MaxFinishedJobs int `yaml:"max_finished_jobs"`
}

// PatentConfig holds record presentation settings.
type PatentConfig struct {
	URLBase string `yaml:"url_base"`
}

// PathEnv overrides the config file chosen by environment name.
const PathEnv = "PATENTSEARCH_CONFIG"

// Load reads config/<env>.yaml, or the file named by PathEnv when set.
func Load(env string) (Config, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return LoadFile(p)
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile parses, defaults and validates one YAML file. ${VAR} and
// ${VAR:-default} references are expanded before parsing.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// GetEnv returns $ENV, or "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Warehouse.Driver == "" {
		c.Warehouse.Driver = WarehouseSQLite
	}
	if c.Warehouse.TimeoutSec <= 0 {
		c.Warehouse.TimeoutSec = 30
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.Embedding.CacheTTLH <= 0 {
		c.Embedding.CacheTTLH = 24 * 30
	}
	if c.Embedding.MaxRetries < 0 {
		c.Embedding.MaxRetries = 0
	}
	if c.Embedding.CacheChars <= 0 {
		c.Embedding.CacheChars = 1000
	}
	if c.Embedding.SlowMs <= 0 {
		c.Embedding.SlowMs = 2000
	}
	if c.Vector.HNSWM <= 0 {
		c.Vector.HNSWM = 32
	}
	if c.Vector.HNSWEFConstruct <= 0 {
		c.Vector.HNSWEFConstruct = 400
	}
	if c.Vector.UpsertBatchSize <= 0 {
		c.Vector.UpsertBatchSize = 100
	}
	if c.Search.RequestTimeoutMs == 0 {
		c.Search.RequestTimeoutMs = 10000
	}
	if c.Search.SemanticTimeoutMs == 0 {
		c.Search.SemanticTimeoutMs = 5000
	}
	if c.Search.BatchWorkers <= 0 {
		c.Search.BatchWorkers = max(runtime.NumCPU(), 2)
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 60
	}
	if c.Auth.Introspection.TimeoutSec <= 0 {
		c.Auth.Introspection.TimeoutSec = 5
	}
	if c.Auth.Introspection.CacheTTLSec <= 0 {
		c.Auth.Introspection.CacheTTLSec = 60
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		fail("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		fail("database.addrs is required")
	}
	switch c.Warehouse.Driver {
	case WarehouseSQLite:
		if c.Warehouse.Path == "" {
			fail("warehouse.path is required for the sqlite driver")
		}
	case WarehouseBigQuery:
		if c.Warehouse.Project == "" || c.Warehouse.Dataset == "" || c.Warehouse.Table == "" {
			fail("warehouse.project, warehouse.dataset and warehouse.table are required for bigquery")
		}
	default:
		fail("warehouse.driver must be %q or %q, got %q", WarehouseSQLite, WarehouseBigQuery, c.Warehouse.Driver)
	}
	if c.Embedding.Model == "" {
		fail("embedding.model is required")
	}
	if c.Embedding.Dimensions > 65535 {
		fail("embedding.dimensions must be at most 65535, got %d", c.Embedding.Dimensions)
	}
	for name, v := range map[string]float64{
		"search.semantic_share":         c.Search.SemanticShare,
		"search.keyword_share":          c.Search.KeywordShare,
		"search.min_similarity":         c.Search.MinSimilarity,
		"search.related_min_similarity": c.Search.RelatedMinSimilarity,
	} {
		if v < 0 || v > 1 {
			fail("%s must be between 0 and 1, got %g", name, v)
		}
	}
	if c.Search.QuickLimit > 100 {
		fail("search.quick_limit must be at most 100, got %d", c.Search.QuickLimit)
	}
	for i, k := range c.Auth.APIKeys {
		if k.Role != "" && k.Role != "user" && k.Role != "admin" {
			fail("auth.api_keys[%d].role must be \"user\" or \"admin\", got %q", i, k.Role)
		}
	}
	if in := c.Auth.Introspection; in.URL != "" && (in.TokenURL == "" || in.ClientID == "") {
		fail("auth.introspection.token_url and client_id are required when url is set")
	}
	if c.RateLimit.Requests < 0 {
		fail("ratelimit.requests must not be negative, got %d", c.RateLimit.Requests)
	}
	return errors.Join(errs...)
}

// RequestTimeout returns the overall search deadline; zero means none.
func (s SearchConfig) RequestTimeout() time.Duration { return millis(s.RequestTimeoutMs) }

// SemanticTimeout returns the semantic branch deadline; zero means none.
func (s SearchConfig) SemanticTimeout() time.Duration { return millis(s.SemanticTimeoutMs) }

func millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// findConfigPath looks in ./config, then in config/ at the module root so
// tests run from any package directory.
func findConfigPath(env string) string {
	name := filepath.Join("config", env+".yaml")
	if _, err := os.Stat(name); err == nil {
		return name
	}
	_, src, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(src)))
	if p := filepath.Join(root, name); fileExists(p) {
		return p
	}
	return name
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
