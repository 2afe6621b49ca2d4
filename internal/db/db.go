// Package db defines the storage contracts the Valkey adapter fulfils and the
// index schema and query types shared with it.
package db

import (
	"context"
	"time"
)

// Store is everything the Valkey adapter offers. Repositories depend on the
// narrow interfaces below instead.
//
//nolint:interfacebloat // consumers declare narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// Pinger checks connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one HSET in a pipelined batch.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore writes and removes patent vector hashes.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	Del(ctx context.Context, key string) error
}

// KVStore backs the embedding cache and the rate limiter counters.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	// Expire with nx only sets a TTL on keys that have none.
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// IndexInfo is the part of FT.INFO the status endpoints report.
type IndexInfo struct {
	NumDocs int
	// Indexing is true while a background scan is still running.
	Indexing bool
}

// IndexManager creates, inspects and drops search indexes.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
	DropIndex(ctx context.Context, name string) error
}

// Searcher runs vector similarity queries.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
