package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
	"github.com/vangona/jeju-guide-sub000/internal/domain/rank"
	"github.com/vangona/jeju-guide-sub000/internal/domain/vector"
)

// BruteForce ranks by scanning every embedded place and computing cosine
// similarity in process. O(n·d) per query; exact and dependency-free, the
// right trade below a few thousand places.
type BruteForce struct {
	candidates CandidateReader
	logger     *zap.Logger
}

// NewBruteForce creates the exact in-process ranker.
func NewBruteForce(candidates CandidateReader, logger *zap.Logger) *BruteForce {
	return &BruteForce{candidates: candidates, logger: logger}
}

// Rank implements Ranker. Candidates whose embedding was produced by a
// different model, has a different dimension, or is a zero vector are
// excluded rather than scored: a wrong score is worse than a missing one.
func (b *BruteForce) Rank(ctx context.Context, vec []float32, model string, topK int) ([]rank.Match, error) {
	candidates, err := b.candidates.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	matches := make([]rank.Match, 0, len(candidates))
	for _, p := range candidates {
		if model != "" && p.EmbeddingModel() != "" && p.EmbeddingModel() != model {
			b.logger.Debug("Skipping candidate",
				zap.String("place_id", p.ID()),
				zap.String("place_model", p.EmbeddingModel()),
				zap.String("query_model", model),
				zap.Error(domain.ErrModelMismatch))
			continue
		}

		score, err := vector.Cosine(vec, p.Embedding())
		if err != nil {
			if errors.Is(err, vector.ErrDimMismatch) || errors.Is(err, vector.ErrZeroVector) {
				b.logger.Debug("Skipping unscorable candidate",
					zap.String("place_id", p.ID()), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("score place %s: %w", p.ID(), err)
		}

		matches = append(matches, rank.New(p, score))
	}

	rank.Sort(matches)
	return rank.Trim(matches, topK), nil
}
