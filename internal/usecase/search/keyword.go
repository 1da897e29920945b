package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/vangona/jeju-guide-sub000/internal/domain/rank"
)

// Keyword is the degraded retrieval path used when no query embedding is
// available: token overlap between the query and each place's search text.
// Scores are the fraction of query tokens found, so they stay in [0, 1]
// like cosine similarity and sort through the same rank machinery.
type Keyword struct {
	places KeywordReader
}

// NewKeyword creates the keyword fallback ranker.
func NewKeyword(places KeywordReader) *Keyword {
	return &Keyword{places: places}
}

// Rank returns places whose search text contains at least one query token.
// Tokenization is whitespace-based and case-insensitive, which is enough
// for Korean place names and categories; no stemming, no synonyms.
func (k *Keyword) Rank(ctx context.Context, query string, topK int) ([]rank.Match, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	places, err := k.places.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}

	matches := make([]rank.Match, 0, len(places))
	for _, p := range places {
		text := strings.ToLower(p.SearchText())
		if text == "" {
			continue
		}

		hits := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		matches = append(matches, rank.New(p, float64(hits)/float64(len(tokens))))
	}

	rank.Sort(matches)
	return rank.Trim(matches, topK), nil
}

func tokenize(query string) []string {
	raw := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(raw))
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}
	return tokens
}
