// Command patentindex manages the patent vector index outside the API server:
// bulk indexing runs, index lifecycle and local warehouse seeding.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/bootstrap"
	"github.com/kailas-cloud/patentsearch/internal/config"
	dbValkey "github.com/kailas-cloud/patentsearch/internal/db/valkey"
	logpkg "github.com/kailas-cloud/patentsearch/internal/logger"
	"github.com/kailas-cloud/patentsearch/internal/metrics"
	vectoruc "github.com/kailas-cloud/patentsearch/internal/usecase/vector"
	"github.com/kailas-cloud/patentsearch/internal/version"
)

// Persistent flags.
var (
	envName    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "patentindex",
	Short:         "Manage the patent vector index",
	Long:          `patentindex pages patents out of the warehouse into the Valkey vector index and manages the index lifecycle.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "environment; selects config/<env>.yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "explicit config file (overrides --env)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(envName)
}

// env holds the adapters one command invocation needs.
type env struct {
	cfg    config.Config
	logger *zap.Logger
	store  *dbValkey.Store
	vec    *vectoruc.Service
}

// setup loads config and connects to Valkey. Call close when done.
func setup(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(envName, cfg.Logging.Level, "indexer")
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	store, err := bootstrap.OpenValkey(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	_, embedder := bootstrap.Embedder(cfg.Embedding, store, logger)
	return &env{
		cfg:    cfg,
		logger: logger,
		store:  store,
		vec:    bootstrap.Vector(embedder, store, &cfg, logger),
	}, nil
}

func (e *env) close() {
	e.store.Close()
	_ = e.logger.Sync()
}
