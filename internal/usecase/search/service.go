// Package search implements semantic place retrieval: embed the query,
// rank stored places by cosine similarity, and degrade to keyword overlap
// when the embedding path is unavailable.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
	"github.com/vangona/jeju-guide-sub000/internal/domain/place"
	"github.com/vangona/jeju-guide-sub000/internal/domain/rank"
	"github.com/vangona/jeju-guide-sub000/internal/metrics"
)

// Limit defaults; callers asking for more than MaxLimit get MaxLimit.
const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Service orchestrates query embedding, ranking and graceful degradation.
// A provider outage or ranker failure never becomes a caller-visible error:
// the service falls back to keyword retrieval, then to an empty result.
type Service struct {
	embedder     domain.Embedder
	ranker       Ranker
	fallback     *Keyword
	embedTimeout time.Duration
	rankTimeout  time.Duration
	logger       *zap.Logger
}

// New creates a search service.
func New(embedder domain.Embedder, ranker Ranker, fallback *Keyword, logger *zap.Logger) *Service {
	return &Service{
		embedder:     embedder,
		ranker:       ranker,
		fallback:     fallback,
		embedTimeout: 10 * time.Second,
		rankTimeout:  5 * time.Second,
		logger:       logger,
	}
}

// WithEmbedTimeout bounds the per-query embedding call.
func (s *Service) WithEmbedTimeout(d time.Duration) *Service {
	if d > 0 {
		s.embedTimeout = d
	}
	return s
}

// WithRankTimeout bounds each candidate-fetch call (ranker and fallback).
func (s *Service) WithRankTimeout(d time.Duration) *Service {
	if d > 0 {
		s.rankTimeout = d
	}
	return s
}

// Search returns up to limit display-safe places for a natural-language
// query, best match first. Vectors and model identifiers are stripped.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]place.Place, error) {
	matches, err := s.RankScored(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	places := make([]place.Place, len(matches))
	for i := range matches {
		p := matches[i].Place()
		places[i] = p.Stripped()
	}
	return places, nil
}

// RankScored is Search with scores attached, for diagnostics and for
// callers that render relevance. Places are stripped here too.
func (s *Service) RankScored(ctx context.Context, query string, limit int) ([]rank.Match, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}

	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0:
		return nil, fmt.Errorf("limit %d: %w", limit, domain.ErrInvalidLimit)
	case limit > MaxLimit:
		limit = MaxLimit
	}

	matches, mode := s.rank(ctx, query, limit)
	metrics.SearchRequestsTotal.WithLabelValues(mode).Inc()

	stripped := make([]rank.Match, len(matches))
	for i := range matches {
		p := matches[i].Place()
		stripped[i] = rank.New(p.Stripped(), matches[i].Score())
	}
	return stripped, nil
}

// rank runs the semantic path and degrades on failure. Each external call
// carries its own timeout so a stalled dependency cannot pin the request.
// Returns the matches and the retrieval mode for metrics.
func (s *Service) rank(ctx context.Context, query string, limit int) ([]rank.Match, string) {
	result, err := s.embedQuery(ctx, query)
	if err != nil {
		s.logger.Warn("Query embedding failed, falling back to keyword search",
			zap.Error(err))
		return s.keywordFallback(ctx, query, limit)
	}

	rankCtx, cancel := context.WithTimeout(ctx, s.rankTimeout)
	defer cancel()

	matches, err := s.ranker.Rank(rankCtx, result.Embedding, result.Model, limit)
	if err != nil {
		s.logger.Warn("Semantic ranking failed, falling back to keyword search",
			zap.Error(err))
		return s.keywordFallback(ctx, query, limit)
	}

	return matches, "semantic"
}

func (s *Service) embedQuery(ctx context.Context, query string) (domain.EmbeddingResult, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()
	return s.embedder.Embed(embedCtx, query)
}

// keywordFallback is the degraded path. Its own failure yields an empty
// result, never an error: search stays available while dependencies flap.
func (s *Service) keywordFallback(ctx context.Context, query string, limit int) ([]rank.Match, string) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, "empty"
	}

	fbCtx, cancel := context.WithTimeout(ctx, s.rankTimeout)
	defer cancel()

	matches, err := s.fallback.Rank(fbCtx, query, limit)
	if err != nil {
		s.logger.Error("Keyword fallback failed, returning empty result", zap.Error(err))
		return nil, "empty"
	}
	return matches, "fallback"
}
