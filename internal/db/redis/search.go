package redis

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/vangona/jeju-guide-sub000/internal/db"
)

// vectorScoreField is the alias the KNN query assigns to the distance via
// AS. Without it RediSearch derives "__" + vector field name + "_score",
// which collides confusingly with our "__vector" field naming.
const vectorScoreField = "__vector_score"

// SearchKNN runs a top-K vector similarity query via FT.SEARCH.
// Entry scores come back as cosine similarity (1 - distance, floored at 0).
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("query vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	query := fmt.Sprintf("*=>[KNN %d @__vector $BLOB AS %s]", q.K, vectorScoreField)
	cmd := s.b().Arbitrary("FT.SEARCH").Args(
		q.IndexName, query,
		"PARAMS", "2", "BLOB", knnBlob(q.Vector),
		"DIALECT", "2",
	).Build()

	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: "FT.SEARCH", Key: q.IndexName, Err: err}
	}
	return parseSearchReply(raw, true)
}

// SearchList pages through index entries via FT.SEARCH LIMIT.
func (s *Store) SearchList(
	ctx context.Context, index, query string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	args := []string{index, query, "LIMIT", strconv.Itoa(offset), strconv.Itoa(limit)}
	if len(fields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(fields)))
		args = append(args, fields...)
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: "FT.SEARCH", Key: index, Err: err}
	}
	return parseSearchReply(raw, false)
}

// SearchCount returns the match count via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: "FT.SEARCH", Key: index, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// parseSearchReply decodes the RESP2 FT.SEARCH reply shape:
// [total, key1, fields1, key2, fields2, ...]. With withScore the KNN
// distance field is lifted out of the field map into Entry.Score.
func parseSearchReply(raw []rueidis.RedisMessage, withScore bool) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldMsgs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entry := db.SearchEntry{Key: key, Fields: fieldMap(fieldMsgs)}
		if withScore {
			if distStr, ok := entry.Fields[vectorScoreField]; ok {
				if d, err := strconv.ParseFloat(distStr, 64); err == nil {
					entry.Score = max(0, 1.0-d)
				}
				delete(entry.Fields, vectorScoreField)
			}
		}
		entries = append(entries, entry)
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func fieldMap(msgs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(msgs)/2)
	for i := 0; i+1 < len(msgs); i += 2 {
		name, err := msgs[i].ToString()
		if err != nil {
			continue
		}
		value, err := msgs[i+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// knnBlob renders a query vector as the binary PARAMS blob RediSearch
// expects: float32 little-endian, 4 bytes per component.
func knnBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return rueidis.BinaryString(buf)
}
