package place

import (
	"context"

	domplace "github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

// Repository is the persistence port of the place CRUD service.
type Repository interface {
	Create(ctx context.Context, p *domplace.Place) error
	Update(ctx context.Context, p *domplace.Place) error
	Get(ctx context.Context, id string) (domplace.Place, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, cursor string, limit int) ([]domplace.Place, string, error)
	Count(ctx context.Context) (int, error)
}
