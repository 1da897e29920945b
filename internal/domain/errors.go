package domain

import "errors"

var (
	// ErrEmptyQuery signals an empty or whitespace-only search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidLimit signals a non-positive result limit.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrPlaceNotFound signals a missing place record.
	ErrPlaceNotFound = errors.New("place not found")
	// ErrPlaceExists signals a duplicate place identifier.
	ErrPlaceExists = errors.New("place already exists")
	// ErrInvalidPlace signals a place that fails validation.
	ErrInvalidPlace = errors.New("invalid place")

	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrVectorDimMismatch signals a vector dimension mismatch between
	// a stored embedding and the query embedding.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrModelMismatch signals a stored embedding produced by a different
	// model than the query embedding.
	ErrModelMismatch = errors.New("embedding model mismatch")
)

// KeyPrefix namespaces all keys this service writes to the store.
const KeyPrefix = "jejuguide:"
