package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
	"github.com/vangona/jeju-guide-sub000/internal/domain/place"
	"github.com/vangona/jeju-guide-sub000/internal/domain/rank"
)

// scenarioEmbedder maps keywords to fixed directions so tests can assert
// semantic ordering without a live provider. Queries and place texts about
// mountains point one way, food another.
type scenarioEmbedder struct {
	calls int
	err   error
}

func (f *scenarioEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}

	vec := []float32{0, 0, 1}
	switch {
	case strings.Contains(text, "한라산") || strings.Contains(text, "등산"):
		vec = []float32{1, 0, 0}
	case strings.Contains(text, "흑돼지") || strings.Contains(text, "맛집"):
		vec = []float32{0, 1, 0}
	}
	return domain.EmbeddingResult{Embedding: vec, Model: testModel}, nil
}

type fakeAllReader struct {
	places []place.Place
	err    error
}

func (f *fakeAllReader) ListAll(context.Context) ([]place.Place, error) {
	return f.places, f.err
}

type failingRanker struct{}

func (failingRanker) Rank(context.Context, []float32, string, int) ([]rank.Match, error) {
	return nil, errors.New("index unavailable")
}

// stalledRanker blocks until its context expires, like a Redis read that
// never comes back.
type stalledRanker struct{}

func (stalledRanker) Rank(ctx context.Context, _ []float32, _ string, _ int) ([]rank.Match, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestService(embedder domain.Embedder, candidates *fakeCandidates, all *fakeAllReader) *Service {
	logger := zap.NewNop()
	return New(
		embedder,
		NewBruteForce(candidates, logger),
		NewKeyword(all),
		logger,
	)
}

func jejuCorpus(t *testing.T) []place.Place {
	t.Helper()
	now := time.Now().UTC()
	return []place.Place{
		place.Reconstruct("p-hallasan", "한라산 국립공원", "등산 코스", "제주시", "", "sight",
			126.5, 33.3, []float32{1, 0, 0}, testModel, false, now, now),
		place.Reconstruct("p-bbq", "돈사돈", "흑돼지 구이 맛집", "제주시 노형동", "", "restaurant",
			126.4, 33.4, []float32{0, 1, 0}, testModel, false, now, now),
		place.Reconstruct("p-beach", "협재해수욕장", "에메랄드빛 바다", "한림읍", "", "sight",
			126.2, 33.3, []float32{0, 0, 1}, testModel, false, now, now),
	}
}

func TestSearchSemanticOrdering(t *testing.T) {
	corpus := jejuCorpus(t)
	svc := newTestService(&scenarioEmbedder{}, &fakeCandidates{places: corpus}, &fakeAllReader{places: corpus})

	places, err := svc.Search(context.Background(), "한라산 등산 코스 추천", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(places) == 0 {
		t.Fatal("got no results")
	}
	if places[0].ID() != "p-hallasan" {
		t.Errorf("top result = %s, want p-hallasan", places[0].ID())
	}

	places, err = svc.Search(context.Background(), "흑돼지 맛집", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if places[0].ID() != "p-bbq" {
		t.Errorf("top result = %s, want p-bbq", places[0].ID())
	}
}

func TestSearchStripsInternalFields(t *testing.T) {
	corpus := jejuCorpus(t)
	svc := newTestService(&scenarioEmbedder{}, &fakeCandidates{places: corpus}, &fakeAllReader{places: corpus})

	places, err := svc.Search(context.Background(), "바다 구경", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	for _, p := range places {
		if p.HasEmbedding() {
			t.Errorf("place %s leaked its embedding vector", p.ID())
		}
		if p.EmbeddingModel() != "" {
			t.Errorf("place %s leaked its embedding model", p.ID())
		}
	}
}

func TestSearchEmptyQueryRejectedBeforeProviderCall(t *testing.T) {
	embedder := &scenarioEmbedder{}
	svc := newTestService(embedder, &fakeCandidates{}, &fakeAllReader{})

	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Search(context.Background(), q, 0); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("query %q: err = %v, want ErrEmptyQuery", q, err)
		}
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times for empty queries, want 0", embedder.calls)
	}
}

func TestSearchLimitSemantics(t *testing.T) {
	corpus := jejuCorpus(t)
	svc := newTestService(&scenarioEmbedder{}, &fakeCandidates{places: corpus}, &fakeAllReader{places: corpus})

	if _, err := svc.Search(context.Background(), "맛집", -1); !errors.Is(err, domain.ErrInvalidLimit) {
		t.Errorf("negative limit: err = %v, want ErrInvalidLimit", err)
	}

	places, err := svc.Search(context.Background(), "맛집", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(places) != 1 {
		t.Errorf("limit=1 returned %d places", len(places))
	}

	// limit above cap is clamped, not rejected
	if _, err := svc.Search(context.Background(), "맛집", MaxLimit+100); err != nil {
		t.Errorf("over-cap limit: err = %v, want nil", err)
	}
}

func TestSearchProviderFailureFallsBackToKeyword(t *testing.T) {
	corpus := jejuCorpus(t)
	embedder := &scenarioEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := newTestService(embedder, &fakeCandidates{places: corpus}, &fakeAllReader{places: corpus})

	places, err := svc.Search(context.Background(), "흑돼지", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(places) != 1 || places[0].ID() != "p-bbq" {
		t.Fatalf("fallback results = %v, want [p-bbq]", placeIDs(places))
	}
}

func TestSearchRankerFailureFallsBackToKeyword(t *testing.T) {
	corpus := jejuCorpus(t)
	svc := New(
		&scenarioEmbedder{},
		failingRanker{},
		NewKeyword(&fakeAllReader{places: corpus}),
		zap.NewNop(),
	)

	places, err := svc.Search(context.Background(), "협재해수욕장", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(places) != 1 || places[0].ID() != "p-beach" {
		t.Fatalf("fallback results = %v, want [p-beach]", placeIDs(places))
	}
}

func TestSearchStalledRankerTimesOutIntoFallback(t *testing.T) {
	corpus := jejuCorpus(t)
	svc := New(
		&scenarioEmbedder{},
		stalledRanker{},
		NewKeyword(&fakeAllReader{places: corpus}),
		zap.NewNop(),
	).WithRankTimeout(20 * time.Millisecond)

	start := time.Now()
	places, err := svc.Search(context.Background(), "흑돼지", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("stalled ranker pinned the request for %v", elapsed)
	}
	if len(places) != 1 || places[0].ID() != "p-bbq" {
		t.Fatalf("fallback results = %v, want [p-bbq]", placeIDs(places))
	}
}

func TestSearchDoubleFailureReturnsEmptyNotError(t *testing.T) {
	embedder := &scenarioEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := newTestService(embedder, &fakeCandidates{}, &fakeAllReader{err: errors.New("redis down")})

	places, err := svc.Search(context.Background(), "한라산", 5)
	if err != nil {
		t.Fatalf("Search must not error when both paths fail, got %v", err)
	}
	if len(places) != 0 {
		t.Errorf("got %d places, want empty result", len(places))
	}
}

func TestSearchNoKeywordMatchReturnsEmpty(t *testing.T) {
	corpus := jejuCorpus(t)
	embedder := &scenarioEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := newTestService(embedder, &fakeCandidates{places: corpus}, &fakeAllReader{places: corpus})

	places, err := svc.Search(context.Background(), "서울 남산타워", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(places) != 0 {
		t.Errorf("unrelated query matched %v", placeIDs(places))
	}
}

func TestRankScoredReturnsScores(t *testing.T) {
	corpus := jejuCorpus(t)
	svc := newTestService(&scenarioEmbedder{}, &fakeCandidates{places: corpus}, &fakeAllReader{places: corpus})

	matches, err := svc.RankScored(context.Background(), "한라산 등산", 3)
	if err != nil {
		t.Fatalf("RankScored: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("got no matches")
	}

	if s := matches[0].Score(); s < 0.999 {
		t.Errorf("top score = %f, want ~1.0", s)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Score() > matches[i-1].Score() {
			t.Errorf("scores not descending at %d: %f > %f", i, matches[i].Score(), matches[i-1].Score())
		}
	}
	p := matches[0].Place()
	if p.HasEmbedding() {
		t.Error("RankScored leaked an embedding vector")
	}
}

func TestKeywordRankPartialOverlap(t *testing.T) {
	corpus := jejuCorpus(t)
	kw := NewKeyword(&fakeAllReader{places: corpus})

	// Both tokens hit p-bbq; only one hits nothing else.
	matches, err := kw.Rank(context.Background(), "흑돼지 구이", 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(matches) != 1 || matchIDs(matches)[0] != "p-bbq" {
		t.Fatalf("matches = %v, want [p-bbq]", matchIDs(matches))
	}
	if matches[0].Score() != 1.0 {
		t.Errorf("full-overlap score = %f, want 1.0", matches[0].Score())
	}
}

func placeIDs(places []place.Place) []string {
	ids := make([]string, len(places))
	for i := range places {
		ids[i] = places[i].ID()
	}
	return ids
}
