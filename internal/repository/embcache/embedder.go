// Package embcache memoizes query embeddings in Valkey so repeated searches
// skip the provider round trip.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentsearch/internal/db"
	"github.com/kailas-cloud/patentsearch/internal/domain"
)

const (
	keySpace = "qemb:"

	// entry layout: version byte, uint16 dims, dims*float32 (little endian).
	entryVersion = 1
	headerLen    = 3
)

// kv is what the cache needs from Valkey.
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures the cache.
type Options struct {
	Model      string
	Dimensions int
	// TTL of zero keeps entries until evicted.
	TTL time.Duration
	// MaxChars bounds the texts that are cached; longer ones (document
	// bodies during indexing) go straight to the provider. Zero caches all.
	MaxChars int
	// Outcomes counts lookups by "result" label: hit, miss or bypass.
	Outcomes *prometheus.CounterVec
}

// Embedder wraps a provider with a read-through cache.
type Embedder struct {
	next   domain.Embedder
	kv     kv
	opts   Options
	scope  string
	logger *zap.Logger
}

// New returns a caching embedder in front of next.
func New(next domain.Embedder, store kv, opts Options, logger *zap.Logger) *Embedder {
	return &Embedder{
		next:   next,
		kv:     store,
		opts:   opts,
		scope:  opts.Model + "/" + strconv.Itoa(opts.Dimensions),
		logger: logger,
	}
}

// Embed serves short texts from the cache. A hit reports zero tokens since
// nothing was billed.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if e.opts.MaxChars > 0 && utf8.RuneCountInString(text) > e.opts.MaxChars {
		e.count("bypass")
		return e.next.Embed(ctx, text)
	}

	key := e.key(text)
	if vec, ok := e.lookup(ctx, key); ok {
		e.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	e.count("miss")

	res, err := e.next.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w", err)
	}
	e.store(ctx, key, res.Embedding)
	return res, nil
}

func (e *Embedder) count(result string) {
	if e.opts.Outcomes != nil {
		e.opts.Outcomes.WithLabelValues(result).Inc()
	}
}

// key scopes entries by model and dimensions so a config change never
// serves vectors of the wrong shape.
func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(e.scope + "\x00" + text))
	return domain.KeyPrefix + keySpace + hex.EncodeToString(sum[:])
}

func (e *Embedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	raw, err := e.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		e.logger.Warn("Query embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeEntry(raw)
	if err == nil && e.opts.Dimensions > 0 && len(vec) != e.opts.Dimensions {
		err = fmt.Errorf("cached vector has %d dims, want %d", len(vec), e.opts.Dimensions)
	}
	if err != nil {
		e.logger.Warn("Discarding unusable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (e *Embedder) store(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := e.kv.SetWithTTL(ctx, key, encodeEntry(vec), e.opts.TTL); err != nil {
		e.logger.Warn("Query embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func encodeEntry(vec []float32) []byte {
	buf := make([]byte, headerLen+4*len(vec))
	buf[0] = entryVersion
	binary.LittleEndian.PutUint16(buf[1:], uint16(len(vec))) //nolint:gosec // embedding dims fit in uint16
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[headerLen+4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeEntry(raw []byte) ([]float32, error) {
	if len(raw) < headerLen {
		return nil, fmt.Errorf("entry too short: %d bytes", len(raw))
	}
	if raw[0] != entryVersion {
		return nil, fmt.Errorf("unknown entry version %d", raw[0])
	}
	dims := int(binary.LittleEndian.Uint16(raw[1:]))
	if dims == 0 || len(raw) != headerLen+4*dims {
		return nil, fmt.Errorf("entry length %d does not match %d dims", len(raw), dims)
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[headerLen+4*i:]))
	}
	return vec, nil
}
