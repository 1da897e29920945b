// Package place implements place record management. Writes never touch
// embeddings directly; edits mark the record dirty and the next indexer
// run re-embeds it.
package place

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
	domplace "github.com/vangona/jeju-guide-sub000/internal/domain/place"
)

// List pagination bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Input carries user-supplied place fields for create and update.
type Input struct {
	Name          string
	Description   string
	Address       string
	AddressDetail string
	Category      string
	Longitude     float64
	Latitude      float64
}

// Service manages place records.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a place management service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create stores a new place with a generated ID. The place starts without
// an embedding; the indexer picks it up as pending.
func (s *Service) Create(ctx context.Context, in Input) (domplace.Place, error) {
	p, err := domplace.New(
		uuid.NewString(),
		in.Name, in.Description, in.Address, in.AddressDetail, in.Category,
		in.Longitude, in.Latitude,
	)
	if err != nil {
		return domplace.Place{}, fmt.Errorf("%w: %s", domain.ErrInvalidPlace, err)
	}

	if err := s.repo.Create(ctx, &p); err != nil {
		return domplace.Place{}, err
	}

	s.logger.Info("Created place", zap.String("place_id", p.ID()), zap.String("name", p.Name()))
	return p, nil
}

// Update replaces the user-facing fields of an existing place. If the
// place had an embedding it is kept but flagged dirty.
func (s *Service) Update(ctx context.Context, id string, in Input) (domplace.Place, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domplace.Place{}, err
	}

	updated, err := current.WithDetails(
		in.Name, in.Description, in.Address, in.AddressDetail, in.Category,
		in.Longitude, in.Latitude,
	)
	if err != nil {
		return domplace.Place{}, fmt.Errorf("%w: %s", domain.ErrInvalidPlace, err)
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return domplace.Place{}, err
	}

	s.logger.Info("Updated place",
		zap.String("place_id", id),
		zap.Bool("embedding_dirty", updated.EmbeddingDirty()))
	return updated, nil
}

// Get returns a display-safe place by ID.
func (s *Service) Get(ctx context.Context, id string) (domplace.Place, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domplace.Place{}, err
	}
	return p.Stripped(), nil
}

// Delete removes a place and its embedding with it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted place", zap.String("place_id", id))
	return nil
}

// List returns a page of display-safe places with an opaque next cursor.
func (s *Service) List(ctx context.Context, cursor string, limit int) ([]domplace.Place, string, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repo.List(ctx, cursor, limit)
}

// Count returns the number of stored places.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
