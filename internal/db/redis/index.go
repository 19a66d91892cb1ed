package redis

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/chunkdex/internal/db"
	"github.com/kailas-cloud/chunkdex/internal/domain/index"
)

// CreateSearchIndex creates an FT index for spec over collection documents.
func (s *Store) CreateSearchIndex(ctx context.Context, collection string, spec index.Specification) (string, error) {
	if spec.Kind == index.KindText && !s.textSearch {
		return "", &db.Error{Op: db.OpCreateIndex, Err: db.ErrTextSearchNotSupported}
	}

	name := s.indexName(collection, spec.Name)
	def, err := buildDefinition(name, s.keyPrefix(collection), spec, s.hnsw)
	if err != nil {
		return "", &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	args, err := buildCreateArgs(def)
	if err != nil {
		return "", &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return "", db.ErrIndexExists
		}
		return "", &db.Error{Op: db.OpCreateIndex, Err: classify(err)}
	}
	return name, nil
}

// ListSearchIndexes lists the FT indexes of collection via FT._LIST and
// reports each one's build state from FT.INFO.
func (s *Store) ListSearchIndexes(ctx context.Context, collection string) ([]index.Status, error) {
	cmd := s.b().Arbitrary("FT._LIST").Build()
	names, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpListIndexes, Err: classify(err)}
	}

	prefix := s.indexName(collection, "")
	sort.Strings(names)

	statuses := make([]index.Status, 0, len(names))
	for _, full := range names {
		short, ok := strings.CutPrefix(full, prefix)
		if !ok {
			continue
		}

		info, err := s.do(ctx, s.b().Arbitrary("FT.INFO").Args(full).Build()).AsMap()
		if err != nil {
			// Dropped between FT._LIST and FT.INFO.
			if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
				continue
			}
			return nil, &db.Error{Op: db.OpIndexInfo, Err: classify(err)}
		}
		statuses = append(statuses, parseInfo(short, info))
	}
	return statuses, nil
}

func (s *Store) indexName(collection, name string) string {
	return s.namespace + ":" + collection + ":" + name
}

func (s *Store) keyPrefix(collection string) string {
	return s.namespace + ":" + collection + ":doc:"
}

// parseInfo maps FT.INFO fields to a status. Redis reports "indexing" and
// "percent_indexed"; valkey-search reports "state" and "backfill_in_progress".
func parseInfo(name string, info map[string]rueidis.RedisMessage) index.Status {
	pending := false
	if msg, ok := info["indexing"]; ok && truthy(msg) {
		pending = true
	}
	if msg, ok := info["backfill_in_progress"]; ok && truthy(msg) {
		pending = true
	}
	if msg, ok := info["percent_indexed"]; ok {
		if pct, err := strconv.ParseFloat(messageString(msg), 64); err == nil && pct < 1 {
			pending = true
		}
	}

	state := index.StatusReady
	if msg, ok := info["state"]; ok {
		if st := messageString(msg); st != "" && !strings.EqualFold(st, "ready") {
			state = index.State(strings.ToUpper(st))
		}
	}
	if pending {
		state = index.StatusPending
	}

	return index.Status{
		Name:      name,
		Status:    state,
		Queryable: !pending,
	}
}

func truthy(msg rueidis.RedisMessage) bool {
	switch messageString(msg) {
	case "", "0", "false":
		return false
	}
	return true
}

func messageString(msg rueidis.RedisMessage) string {
	if s, err := msg.ToString(); err == nil {
		return s
	}
	if n, err := msg.AsInt64(); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := msg.AsFloat64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
