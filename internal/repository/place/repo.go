// Package place persists place records as Redis hashes under one FT index
// and serves both retrieval paths: full candidate scans for the brute-force
// ranker and server-side KNN for the delegated ranker.
package place

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vangona/jeju-guide-sub000/internal/db"
	"github.com/vangona/jeju-guide-sub000/internal/domain"
	domplace "github.com/vangona/jeju-guide-sub000/internal/domain/place"
	"github.com/vangona/jeju-guide-sub000/internal/domain/rank"
)

// store is the consumer interface for place persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig tunes the vector index.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the place store ports of the usecase layer.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a place repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// WithHNSW configures HNSW index parameters for EnsureIndex.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the place FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, vectorDim int) error {
	def := &db.IndexDefinition{
		Name:     indexName(),
		Prefixes: []string{keyPrefix()},
		Fields: []db.IndexField{
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldSearchText, Type: db.IndexFieldText},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorDim:         vectorDim,
				VectorAlgo:        db.VectorHNSW,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create place index: %w", err)
	}
	return nil
}

// Create stores a new place. Fails if the ID is already taken.
func (r *Repo) Create(ctx context.Context, p *domplace.Place) error {
	key := placeKey(p.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrPlaceExists
	}

	if err := r.store.HSet(ctx, key, buildHashFields(p)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Update overwrites an existing place record.
func (r *Repo) Update(ctx context.Context, p *domplace.Place) error {
	key := placeKey(p.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrPlaceNotFound
	}

	if err := r.store.HSet(ctx, key, buildHashFields(p)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a place by ID.
func (r *Repo) Get(ctx context.Context, id string) (domplace.Place, error) {
	key := placeKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domplace.Place{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domplace.Place{}, domain.ErrPlaceNotFound
	}
	return parseHashFields(id, m), nil
}

// Delete removes a place.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := placeKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrPlaceNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// List returns places with cursor-based pagination via FT.SEARCH.
// Embeddings are not included in listings.
func (r *Repo) List(ctx context.Context, cursor string, limit int) ([]domplace.Place, string, error) {
	if limit <= 0 {
		limit = 20
	}

	offset := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor %q: %w", cursor, domain.ErrInvalidPlace)
		}
		offset = parsed
	}

	fetchCount := limit + 1
	result, err := r.store.SearchList(ctx, indexName(), "*", offset, fetchCount, nil)
	if err != nil {
		return nil, "", fmt.Errorf("list places: %w", err)
	}

	if result == nil || result.Total == 0 {
		return nil, "", nil
	}

	places := make([]domplace.Place, 0, limit)
	for i, entry := range result.Entries {
		if i >= limit {
			break
		}
		p := parseHashFields(extractID(entry.Key), entry.Fields)
		places = append(places, p.Stripped())
	}

	var nextCursor string
	if len(result.Entries) > limit {
		nextCursor = strconv.Itoa(offset + limit)
	}

	return places, nextCursor, nil
}

// Count returns the number of stored places.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(), "*")
	if err != nil {
		return 0, fmt.Errorf("count places: %w", err)
	}
	return n, nil
}

// ListCandidates returns every place that carries an embedding, with the
// vector attached. This is the brute-force ranker's feed.
func (r *Repo) ListCandidates(ctx context.Context) ([]domplace.Place, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	candidates := all[:0]
	for _, p := range all {
		if p.HasEmbedding() {
			candidates = append(candidates, p)
		}
	}
	return candidates, nil
}

// ListPending returns places the indexer should embed: those with no
// embedding or a dirty one. With all=true every place is returned.
func (r *Repo) ListPending(ctx context.Context, all bool) ([]domplace.Place, error) {
	places, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if all {
		return places, nil
	}

	pending := places[:0]
	for _, p := range places {
		if !p.HasEmbedding() || p.EmbeddingDirty() {
			pending = append(pending, p)
		}
	}
	return pending, nil
}

// UpsertEmbeddings writes a batch of staged embeddings in one pipelined
// round-trip. Last write wins; the dirty flag is cleared.
func (r *Repo) UpsertEmbeddings(ctx context.Context, updates []domain.EmbeddingUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	items := make([]db.HashSetItem, len(updates))
	for i, u := range updates {
		items[i] = db.HashSetItem{
			Key: placeKey(u.PlaceID),
			Fields: map[string]string{
				fieldVector:      vectorToBytes(u.Vector),
				fieldVectorModel: u.Model,
				fieldVectorDirty: "0",
				fieldUpdatedAt:   now,
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert embeddings: %w", err)
	}
	return nil
}

// SearchKNN delegates top-K nearest-neighbor search to the vector index.
func (r *Repo) SearchKNN(ctx context.Context, vec []float32, topK int) ([]rank.Match, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: indexName(),
		Vector:    vec,
		K:         topK,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	matches := make([]rank.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		p := parseHashFields(extractID(entry.Key), entry.Fields)
		matches = append(matches, rank.New(p, entry.Score))
	}
	return matches, nil
}

// ListAll returns every stored place, vectors included. The keyword
// fallback searches this set so that never-indexed places still surface.
func (r *Repo) ListAll(ctx context.Context) ([]domplace.Place, error) {
	keys, err := r.store.Scan(ctx, keyPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan places: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch places: %w", err)
	}

	places := make([]domplace.Place, 0, len(keys))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		places = append(places, parseHashFields(extractID(keys[i]), m))
	}
	return places, nil
}

func keyPrefix() string {
	return domain.KeyPrefix + "place:"
}

func placeKey(id string) string {
	return keyPrefix() + id
}

func indexName() string {
	return domain.KeyPrefix + "place_idx"
}

func extractID(key string) string {
	return strings.TrimPrefix(key, keyPrefix())
}
