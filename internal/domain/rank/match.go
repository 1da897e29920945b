// Package rank defines the ordered output of a similarity ranking.
package rank

import (
	"sort"

	"github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

// Match is a single ranked hit: a place and its similarity score.
type Match struct {
	place place.Place
	score float64
}

// New creates a match.
func New(p place.Place, score float64) Match {
	return Match{place: p, score: score}
}

// Place returns the matched place.
func (m *Match) Place() place.Place { return m.place }

// Score returns the similarity score.
func (m *Match) Score() float64 { return m.score }

// Sort orders matches by descending score, ties broken by ascending place ID
// so that rankings are deterministic.
func Sort(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].place.ID() < matches[j].place.ID()
	})
}

// Trim returns at most k matches. A non-positive k returns an empty slice.
func Trim(matches []Match, k int) []Match {
	if k <= 0 {
		return nil
	}
	if len(matches) > k {
		return matches[:k]
	}
	return matches
}
