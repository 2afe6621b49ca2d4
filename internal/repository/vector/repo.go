// Package vector stores patent embeddings in a Valkey HNSW index and runs
// filtered similarity queries against it.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/patentsearch/internal/db"
	"github.com/kailas-cloud/patentsearch/internal/db/valkey"
	"github.com/kailas-cloud/patentsearch/internal/domain"
	"github.com/kailas-cloud/patentsearch/internal/domain/search/filter"
	domvec "github.com/kailas-cloud/patentsearch/internal/domain/vector"
)

// Stored metadata limits.
const (
	MaxAbstractRunes   = 1000
	MaxClassifications = 10
)

// store is the consumer interface for the vector index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Options configure the index layout.
type Options struct {
	IndexName   string
	KeyPrefix   string
	Dimensions  int
	M           int
	EFConstruct int
	// EFRuntime widens the HNSW search per query; zero keeps the server default.
	EFRuntime int
}

// DefaultOptions returns the layout used when config leaves fields empty.
func DefaultOptions() Options {
	return Options{
		IndexName:   domain.KeyPrefix + "patents:idx",
		KeyPrefix:   domain.KeyPrefix + "patent:",
		Dimensions:  1024,
		M:           32,
		EFConstruct: 400,
	}
}

// Repo implements the vector index contract used by usecase/vector.
type Repo struct {
	store store
	opts  Options
}

// New creates a vector repository. Zero option fields fall back to DefaultOptions.
func New(s store, opts Options) *Repo {
	def := DefaultOptions()
	if opts.IndexName == "" {
		opts.IndexName = def.IndexName
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = def.KeyPrefix
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = def.Dimensions
	}
	if opts.M <= 0 {
		opts.M = def.M
	}
	if opts.EFConstruct <= 0 {
		opts.EFConstruct = def.EFConstruct
	}
	opts.EFRuntime = max(opts.EFRuntime, 0)
	return &Repo{store: s, opts: opts}
}

// Dimensions returns the configured vector dimension.
func (r *Repo) Dimensions() int { return r.opts.Dimensions }

// Upsert writes entries as hashes in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, entries []domvec.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		dense, err := e.Vector.Dense(r.opts.Dimensions)
		if err != nil {
			return fmt.Errorf("vector for %s: %w", e.Record.ID, err)
		}
		fields := Metadata(&e.Record)
		fields[FieldVector] = valkey.VectorToBytes(dense)
		items = append(items, db.HashSetItem{Key: r.key(e.Record.ID), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: upsert %d vectors: %w", domain.ErrVectorUnavailable, len(items), err)
	}
	return nil
}

// Query returns up to topK matches in index order (descending similarity).
// Country and date range are index pre-filters; assignee and classification
// filters are applied to the stored metadata afterwards.
func (r *Repo) Query(ctx context.Context, vec domvec.Sparse, topK int, f filter.Filters) ([]domvec.Match, error) {
	dense, err := vec.Dense(r.opts.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorUnavailable, err)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.opts.IndexName,
		VectorField:  FieldVector,
		Filter:       preFilter(f),
		Vector:       dense,
		K:            topK,
		ReturnFields: metadataFields,
		EFRuntime:    r.opts.EFRuntime,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrVectorUnavailable, domain.ErrIndexNotReady)
		}
		return nil, fmt.Errorf("%w: knn query: %w", domain.ErrVectorUnavailable, err)
	}

	matches := make([]domvec.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		m := r.parseEntry(entry)
		if !postFilter(f, m.Metadata) {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Status reports whether the index exists and how many vectors it holds.
func (r *Repo) Status(ctx context.Context) (domvec.Status, error) {
	info, err := r.store.IndexInfo(ctx, r.opts.IndexName)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domvec.Status{}, nil
		}
		return domvec.Status{}, fmt.Errorf("%w: index info: %w", domain.ErrVectorUnavailable, err)
	}
	return domvec.Status{Exists: true, Ready: !info.Indexing, VectorCount: info.NumDocs}, nil
}

// Create creates the index. An existing index is not an error.
func (r *Repo) Create(ctx context.Context) error {
	def, err := buildIndex(r.opts)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("%w: create index: %w", domain.ErrVectorUnavailable, err)
	}
	return nil
}

// Delete drops the index. A missing index is not an error. Stored hashes are kept.
func (r *Repo) Delete(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.opts.IndexName); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("%w: drop index: %w", domain.ErrVectorUnavailable, err)
	}
	return nil
}

func (r *Repo) key(id string) string { return r.opts.KeyPrefix + id }

func (r *Repo) parseEntry(entry db.SearchEntry) domvec.Match {
	id := entry.Fields[FieldID]
	if id == "" {
		id = strings.TrimPrefix(entry.Key, r.opts.KeyPrefix)
	}
	return domvec.Match{ID: id, SimilarityScore: entry.Score, Metadata: entry.Fields}
}
