package valkey

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/patentsearch/internal/db"
)

// SearchKNN runs FT.SEARCH with a KNN clause. Entries keep server order and
// Score is cosine similarity (1 - distance) floored at 0.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(q.Args(VectorToBytes(q.Vector))...).Build()
	reply, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Key: q.IndexName, Err: err}
	}
	return decodeSearchReply(reply)
}

// decodeSearchReply reads [total, key, [field, value, ...], key, ...].
// Malformed pairs are skipped.
func decodeSearchReply(reply []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(reply) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := reply[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("search reply total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(reply); i += 2 {
		key, kerr := reply[i].ToString()
		pairs, ferr := reply[i+1].ToArray()
		if kerr != nil || ferr != nil {
			continue
		}
		fields := make(map[string]string, len(pairs)/2)
		for j := 0; j+1 < len(pairs); j += 2 {
			name, nerr := pairs[j].ToString()
			val, verr := pairs[j+1].ToString()
			if nerr == nil && verr == nil {
				fields[name] = val
			}
		}

		entry := db.SearchEntry{Key: key, Fields: fields}
		if raw, ok := fields[db.ScoreField]; ok {
			if dist, perr := strconv.ParseFloat(raw, 64); perr == nil {
				entry.Score = math.Max(0, 1-dist)
			}
			delete(fields, db.ScoreField)
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

// VectorToBytes encodes a dense vector as little-endian float32, the layout
// of the HASH vector field and the KNN query blob.
func VectorToBytes(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}
