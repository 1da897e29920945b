package search

import (
	"context"
	"fmt"

	"github.com/vangona/jeju-guide-sub000/internal/domain/rank"
)

// Delegated ranks by handing top-K selection to the server-side vector
// index (HNSW). Approximate but sublinear; drop-in for BruteForce.
type Delegated struct {
	searcher KNNSearcher
}

// NewDelegated creates the vector-index-backed ranker.
func NewDelegated(searcher KNNSearcher) *Delegated {
	return &Delegated{searcher: searcher}
}

// Rank implements Ranker. The index already orders by distance; matches
// are re-sorted locally so equal scores break ties by place ID the same
// way the brute-force ranker does.
func (d *Delegated) Rank(ctx context.Context, vec []float32, _ string, topK int) ([]rank.Match, error) {
	matches, err := d.searcher.SearchKNN(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	rank.Sort(matches)
	return rank.Trim(matches, topK), nil
}
