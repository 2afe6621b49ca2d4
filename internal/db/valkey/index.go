package valkey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/patentsearch/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := def.CreateArgs()
	if err != nil {
		return fmt.Errorf("index definition: %w", err)
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isServerErr(err, "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. Indexed hashes are left in place.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexInfo reads document count and backfill state via FT.INFO.
// Valkey reports "backfill_in_progress"/"state"; Redis reports "indexing". Both are handled.
func (s *Store) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return parseIndexInfo(raw), nil
}

func isUnknownIndex(err error) bool {
	return isServerErr(err, "unknown index name") || isServerErr(err, "not found")
}

func parseIndexInfo(raw []rueidis.RedisMessage) *db.IndexInfo {
	info := &db.IndexInfo{}
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		val := scalar(raw[i+1])
		switch key {
		case "num_docs":
			if n, err := strconv.ParseFloat(val, 64); err == nil {
				info.NumDocs = int(n)
			}
		case "indexing", "backfill_in_progress":
			if val == "1" {
				info.Indexing = true
			}
		case "state":
			if val != "" && val != "ready" {
				info.Indexing = true
			}
		}
	}
	return info
}

func scalar(m rueidis.RedisMessage) string {
	if s, err := m.ToString(); err == nil {
		return s
	}
	if n, err := m.AsInt64(); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return ""
}
