// Package landscape composes statistics, technology clusters and a citation
// network for a query.
package landscape

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/analytics"
	"github.com/kailas-cloud/patentsearch/internal/domain/patent"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/request"
	"github.com/kailas-cloud/patentsearch/internal/logger"
)

// Options bound the landscape payload.
type Options struct {
	SampleSize      int
	MinClusterSize  int
	MaxClusters     int
	ClusterPatents  int
	ClusterKeywords int
	NetworkNodes    int
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		SampleSize:      200,
		MinClusterSize:  3,
		MaxClusters:     10,
		ClusterPatents:  5,
		ClusterKeywords: 5,
		NetworkNodes:    30,
	}
}

// Service builds landscape reports.
type Service struct {
	corpus  Corpus
	sampler Sampler
	opts    Options
	logger  *zap.Logger
}

// New creates a landscape service. Zero option fields take DefaultOptions.
func New(corpus Corpus, sampler Sampler, opts Options, logger *zap.Logger) *Service {
	def := DefaultOptions()
	if opts.SampleSize <= 0 {
		opts.SampleSize = def.SampleSize
	}
	if opts.MinClusterSize <= 0 {
		opts.MinClusterSize = def.MinClusterSize
	}
	if opts.MaxClusters <= 0 {
		opts.MaxClusters = def.MaxClusters
	}
	if opts.ClusterPatents <= 0 {
		opts.ClusterPatents = def.ClusterPatents
	}
	if opts.ClusterKeywords <= 0 {
		opts.ClusterKeywords = def.ClusterKeywords
	}
	if opts.NetworkNodes <= 0 {
		opts.NetworkNodes = def.NetworkNodes
	}
	return &Service{corpus: corpus, sampler: sampler, opts: opts, logger: logger}
}

// Generate runs statistics and sampling concurrently, then clusters the
// sample and loads citation edges between the first sampled patents.
// An edge lookup failure leaves the network without edges and flagged.
func (s *Service) Generate(ctx context.Context, query string, f filter.Filters) (analytics.Landscape, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return analytics.Landscape{}, domain.NewValidationError("query", "is required")
	}
	if utf8.RuneCountInString(query) > request.MaxQueryLength {
		return analytics.Landscape{}, domain.NewValidationError("query", "too long (max 5000 chars)")
	}
	f, err := f.Normalize()
	if err != nil {
		return analytics.Landscape{}, domain.NewValidationError("filters", err.Error())
	}

	var (
		stats  analytics.Statistics
		sample []patent.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.corpus.GetStatistics(gctx, f)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sample, err = s.sampler.Hybrid(gctx, query, f, s.opts.SampleSize)
		if err != nil {
			return fmt.Errorf("sample: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return analytics.Landscape{}, err
	}

	clusters := analytics.BuildClusters(sample, analytics.ClusterParams{
		MinSize:     s.opts.MinClusterSize,
		MaxClusters: s.opts.MaxClusters,
		MaxPatents:  s.opts.ClusterPatents,
		MaxKeywords: s.opts.ClusterKeywords,
	})

	return analytics.Landscape{
		Query:      query,
		SampleSize: len(sample),
		Statistics: stats,
		Clusters:   clusters,
		Network:    s.network(ctx, sample),
	}, nil
}

func (s *Service) network(ctx context.Context, sample []patent.Record) analytics.Network {
	nodes := analytics.BuildNodes(sample, s.opts.NetworkNodes)
	net := analytics.Network{Nodes: nodes, Edges: []patent.Edge{}}
	if len(nodes) == 0 {
		net.EdgesAvailable = true
		return net
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	edges, err := s.corpus.CitationEdges(ctx, ids)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("citation edges unavailable", zap.Int("nodes", len(ids)), zap.Error(err))
		return net
	}
	net.Edges = edges
	net.EdgesAvailable = true
	return net
}
