package place

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vangona/jeju-guide-sub000/internal/db"
	"github.com/vangona/jeju-guide-sub000/internal/domain"
	domplace "github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

// mockStore implements the store consumer interface with overridable funcs.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMulti  func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn         func(ctx context.Context, key string) error
	existsFn      func(ctx context.Context, key string) (bool, error)
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchListFn  func(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index, query string) (int, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return nil, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMulti != nil {
		return m.hgetAllMulti(ctx, keys)
	}
	return nil, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, index, query, offset, limit, fields)
	}
	return nil, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index, query string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, query)
	}
	return 0, nil
}

func testPlace(t *testing.T) domplace.Place {
	t.Helper()
	p, err := domplace.New("p1", "돈사돈", "흑돼지 구이", "제주시 노형동", "", "restaurant", 126.47, 33.48)
	if err != nil {
		t.Fatalf("place.New: %v", err)
	}
	return p
}

func TestHashFieldsRoundTrip(t *testing.T) {
	p := testPlace(t)
	embedded := p.WithEmbedding([]float32{0.1, -0.5, 2.25}, "text-embedding-3-small")

	got := parseHashFields("p1", buildHashFields(&embedded))

	if got.Name() != embedded.Name() || got.Description() != embedded.Description() {
		t.Error("text fields did not survive the round trip")
	}
	if got.Longitude() != embedded.Longitude() || got.Latitude() != embedded.Latitude() {
		t.Error("coordinates did not survive the round trip")
	}
	if got.EmbeddingModel() != "text-embedding-3-small" {
		t.Errorf("model = %q", got.EmbeddingModel())
	}
	if got.EmbeddingDirty() {
		t.Error("clean embedding parsed as dirty")
	}

	vec := got.Embedding()
	want := embedded.Embedding()
	if len(vec) != len(want) {
		t.Fatalf("vector length %d, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec[%d] = %v, want %v", i, vec[i], want[i])
		}
	}
	if !got.CreatedAt().Equal(embedded.CreatedAt()) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt(), embedded.CreatedAt())
	}
}

func TestBuildHashFields_NoVectorWhenUnembedded(t *testing.T) {
	p := testPlace(t)
	m := buildHashFields(&p)

	if _, ok := m[fieldVector]; ok {
		t.Error("unembedded place stored a vector field")
	}
	if m[fieldVectorDirty] != "0" {
		t.Errorf("dirty = %q, want 0", m[fieldVectorDirty])
	}
	if m[fieldSearchText] != p.SearchText() {
		t.Errorf("__search = %q, want %q", m[fieldSearchText], p.SearchText())
	}
}

func TestCreate_ExistingIDRejected(t *testing.T) {
	ms := &mockStore{
		existsFn: func(_ context.Context, _ string) (bool, error) { return true, nil },
	}
	p := testPlace(t)

	err := New(ms).Create(context.Background(), &p)
	if !errors.Is(err, domain.ErrPlaceExists) {
		t.Errorf("err = %v, want ErrPlaceExists", err)
	}
}

func TestGet_MissingPlace(t *testing.T) {
	ms := &mockStore{
		hgetAllFn: func(_ context.Context, _ string) (map[string]string, error) {
			return map[string]string{}, nil
		},
	}

	_, err := New(ms).Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrPlaceNotFound) {
		t.Errorf("err = %v, want ErrPlaceNotFound", err)
	}
}

func TestGet_UsesPrefixedKey(t *testing.T) {
	var gotKey string
	ms := &mockStore{
		hgetAllFn: func(_ context.Context, key string) (map[string]string, error) {
			gotKey = key
			return map[string]string{fieldName: "한라산"}, nil
		},
	}

	if _, err := New(ms).Get(context.Background(), "p1"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotKey != "jejuguide:place:p1" {
		t.Errorf("key = %q, want jejuguide:place:p1", gotKey)
	}
}

func TestListPending_FiltersEmbeddedClean(t *testing.T) {
	now := time.Now().UTC()
	hashes := map[string]map[string]string{
		"jejuguide:place:p-clean": func() map[string]string {
			p := domplace.Reconstruct("p-clean", "A", "", "", "", "", 0, 0,
				[]float32{1}, "m", false, now, now)
			return buildHashFields(&p)
		}(),
		"jejuguide:place:p-dirty": func() map[string]string {
			p := domplace.Reconstruct("p-dirty", "B", "", "", "", "", 0, 0,
				[]float32{1}, "m", true, now, now)
			return buildHashFields(&p)
		}(),
		"jejuguide:place:p-new": func() map[string]string {
			p := domplace.Reconstruct("p-new", "C", "", "", "", "", 0, 0,
				nil, "", false, now, now)
			return buildHashFields(&p)
		}(),
	}

	keys := make([]string, 0, len(hashes))
	for k := range hashes {
		keys = append(keys, k)
	}

	ms := &mockStore{
		scanFn: func(_ context.Context, pattern string) ([]string, error) {
			if !strings.HasPrefix(pattern, "jejuguide:place:") {
				t.Errorf("scan pattern = %q", pattern)
			}
			return keys, nil
		},
		hgetAllMulti: func(_ context.Context, ks []string) ([]map[string]string, error) {
			out := make([]map[string]string, len(ks))
			for i, k := range ks {
				out[i] = hashes[k]
			}
			return out, nil
		},
	}

	repo := New(ms)

	pending, err := repo.ListPending(context.Background(), false)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	ids := make(map[string]bool, len(pending))
	for _, p := range pending {
		ids[p.ID()] = true
	}
	if len(pending) != 2 || !ids["p-dirty"] || !ids["p-new"] {
		t.Errorf("pending = %v, want p-dirty and p-new", ids)
	}

	all, err := repo.ListPending(context.Background(), true)
	if err != nil {
		t.Fatalf("ListPending(all): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d places, want 3", len(all))
	}

	candidates, err := repo.ListCandidates(context.Background())
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("candidates = %d, want 2 (embedded only)", len(candidates))
	}
}

func TestUpsertEmbeddings_WritesBatchAndClearsDirty(t *testing.T) {
	var got []db.HashSetItem
	ms := &mockStore{
		hsetMultiFn: func(_ context.Context, items []db.HashSetItem) error {
			got = items
			return nil
		},
	}

	updates := []domain.EmbeddingUpdate{
		{PlaceID: "p1", Vector: []float32{0.1}, Model: "m"},
		{PlaceID: "p2", Vector: []float32{0.2}, Model: "m"},
	}
	if err := New(ms).UpsertEmbeddings(context.Background(), updates); err != nil {
		t.Fatalf("UpsertEmbeddings: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("wrote %d items, want 2", len(got))
	}
	if got[0].Key != "jejuguide:place:p1" {
		t.Errorf("key = %q", got[0].Key)
	}
	if got[0].Fields[fieldVectorDirty] != "0" {
		t.Error("upsert must clear the dirty flag")
	}
	if got[0].Fields[fieldVectorModel] != "m" {
		t.Errorf("model field = %q", got[0].Fields[fieldVectorModel])
	}
	if got[0].Fields[fieldVector] == "" {
		t.Error("vector field missing")
	}
}

func TestUpsertEmbeddings_EmptyBatchIsNoop(t *testing.T) {
	ms := &mockStore{
		hsetMultiFn: func(_ context.Context, _ []db.HashSetItem) error {
			t.Fatal("HSetMulti called for empty batch")
			return nil
		},
	}
	if err := New(ms).UpsertEmbeddings(context.Background(), nil); err != nil {
		t.Fatalf("UpsertEmbeddings: %v", err)
	}
}

func TestEnsureIndex_ExistingIndexIsFine(t *testing.T) {
	ms := &mockStore{
		createIndexFn: func(_ context.Context, _ *db.IndexDefinition) error {
			return db.ErrIndexExists
		},
	}
	if err := New(ms).EnsureIndex(context.Background(), 1536); err != nil {
		t.Errorf("EnsureIndex with existing index: %v", err)
	}
}

func TestEnsureIndex_Definition(t *testing.T) {
	var def *db.IndexDefinition
	ms := &mockStore{
		createIndexFn: func(_ context.Context, d *db.IndexDefinition) error {
			def = d
			return nil
		},
	}

	repo := New(ms).WithHNSW(HNSWConfig{M: 16, EFConstruct: 200})
	if err := repo.EnsureIndex(context.Background(), 1536); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}

	if def.Name != "jejuguide:place_idx" {
		t.Errorf("index name = %q", def.Name)
	}
	var vecField *db.IndexField
	for i := range def.Fields {
		if def.Fields[i].Type == db.IndexFieldVector {
			vecField = &def.Fields[i]
		}
	}
	if vecField == nil {
		t.Fatal("no vector field in index definition")
	}
	if vecField.VectorDim != 1536 || vecField.VectorM != 16 || vecField.VectorEFConstruct != 200 {
		t.Errorf("vector field = %+v", vecField)
	}
}

func TestSearchKNN_ParsesMatches(t *testing.T) {
	ms := &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			if q.K != 3 {
				t.Errorf("K = %d, want 3", q.K)
			}
			return &db.SearchResult{
				Total: 1,
				Entries: []db.SearchEntry{
					{
						Key:   "jejuguide:place:p1",
						Score: 0.87,
						Fields: map[string]string{
							fieldName: "한라산",
						},
					},
				},
			}, nil
		},
	}

	matches, err := New(ms).SearchKNN(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches", len(matches))
	}
	p := matches[0].Place()
	if p.ID() != "p1" || p.Name() != "한라산" {
		t.Errorf("place = %s/%s", p.ID(), p.Name())
	}
	if matches[0].Score() != 0.87 {
		t.Errorf("score = %v", matches[0].Score())
	}
}
