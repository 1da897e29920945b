// Package vector holds the similarity arithmetic shared by the brute-force
// ranker and the indexer. Scores accumulate in float64 even though stored
// embeddings are float32: summing thousands of float32 products loses enough
// precision to reorder near-ties.
package vector

import (
	"errors"
	"math"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
)

var (
	// ErrDimMismatch signals two vectors of different lengths.
	// Alias of the domain sentinel.
	ErrDimMismatch = domain.ErrVectorDimMismatch
	// ErrZeroVector signals a zero-magnitude vector, for which cosine
	// similarity is undefined.
	ErrZeroVector = errors.New("zero vector")
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Returns ErrDimMismatch for unequal lengths and ErrZeroVector when either
// side has zero magnitude; it never returns NaN.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimMismatch
	}
	if len(a) == 0 {
		return 0, ErrZeroVector
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard against float drift pushing past the mathematical bounds.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
