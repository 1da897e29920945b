package indexer

import (
	"context"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
	"github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

// PlaceLister feeds the indexer with places that need embedding.
type PlaceLister interface {
	ListPending(ctx context.Context, all bool) ([]place.Place, error)
}

// EmbeddingWriter persists staged embedding batches.
type EmbeddingWriter interface {
	UpsertEmbeddings(ctx context.Context, updates []domain.EmbeddingUpdate) error
}
