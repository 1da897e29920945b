package search

import (
	"context"

	"github.com/vangona/jeju-guide-sub000/internal/domain/place"
	"github.com/vangona/jeju-guide-sub000/internal/domain/rank"
)

// Ranker produces the top-K places for a query embedding. Implementations
// are interchangeable: brute-force scan or delegated vector index.
type Ranker interface {
	Rank(ctx context.Context, vec []float32, model string, topK int) ([]rank.Match, error)
}

// CandidateReader feeds the brute-force ranker with embedded places.
type CandidateReader interface {
	ListCandidates(ctx context.Context) ([]place.Place, error)
}

// KNNSearcher is the delegated ranker's port to the vector index.
type KNNSearcher interface {
	SearchKNN(ctx context.Context, vec []float32, topK int) ([]rank.Match, error)
}

// KeywordReader feeds the keyword fallback. Unlike CandidateReader it
// returns every place, so never-indexed records still surface.
type KeywordReader interface {
	ListAll(ctx context.Context) ([]place.Place, error)
}
