// Package place defines the unit of retrieval: a travel-guide place record
// with its searchable text fields and optional embedding vector.
package place

import (
	"fmt"
	"strings"
	"time"
)

// MaxNameLen and MaxDescriptionLen bound user-supplied text fields.
const (
	MaxNameLen        = 256
	MaxDescriptionLen = 8192
)

// Place is the place aggregate (immutable value object).
// The geolocation pair is display-only and never participates in ranking.
type Place struct {
	id             string
	name           string
	description    string
	address        string
	addressDetail  string
	category       string
	longitude      float64
	latitude       float64
	embedding      []float32
	embeddingModel string
	embeddingDirty bool
	createdAt      time.Time
	updatedAt      time.Time
}

// New validates and creates a Place without an embedding.
// ID and name are required; the rest of the text fields may be empty as long
// as the canonical search text is non-empty somewhere down the line.
func New(id, name, description, address, addressDetail, category string, lon, lat float64) (Place, error) {
	if id == "" {
		return Place{}, fmt.Errorf("place ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return Place{}, fmt.Errorf("place name is required")
	}
	if len(name) > MaxNameLen {
		return Place{}, fmt.Errorf("place name too long (max %d)", MaxNameLen)
	}
	if len(description) > MaxDescriptionLen {
		return Place{}, fmt.Errorf("place description too long (max %d bytes)", MaxDescriptionLen)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return Place{}, fmt.Errorf("invalid coordinates: lon=%f lat=%f", lon, lat)
	}

	now := time.Now().UTC()
	return Place{
		id:            id,
		name:          name,
		description:   description,
		address:       address,
		addressDetail: addressDetail,
		category:      category,
		longitude:     lon,
		latitude:      lat,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct creates a Place without validation (storage hydration).
func Reconstruct(
	id, name, description, address, addressDetail, category string,
	lon, lat float64,
	embedding []float32, embeddingModel string, embeddingDirty bool,
	createdAt, updatedAt time.Time,
) Place {
	return Place{
		id:             id,
		name:           name,
		description:    description,
		address:        address,
		addressDetail:  addressDetail,
		category:       category,
		longitude:      lon,
		latitude:       lat,
		embedding:      embedding,
		embeddingModel: embeddingModel,
		embeddingDirty: embeddingDirty,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// ID returns the place identifier.
func (p *Place) ID() string { return p.id }

// Name returns the place name.
func (p *Place) Name() string { return p.name }

// Description returns the place description.
func (p *Place) Description() string { return p.description }

// Address returns the road address.
func (p *Place) Address() string { return p.address }

// AddressDetail returns the extra address line.
func (p *Place) AddressDetail() string { return p.addressDetail }

// Category returns the place category (restaurant, cafe, sight, ...).
func (p *Place) Category() string { return p.category }

// Longitude returns the display longitude.
func (p *Place) Longitude() float64 { return p.longitude }

// Latitude returns the display latitude.
func (p *Place) Latitude() float64 { return p.latitude }

// Embedding returns the stored embedding vector, nil if never indexed.
func (p *Place) Embedding() []float32 { return p.embedding }

// EmbeddingModel returns the model identifier the embedding was produced with.
func (p *Place) EmbeddingModel() string { return p.embeddingModel }

// EmbeddingDirty reports whether the searchable fields changed after the
// embedding was produced.
func (p *Place) EmbeddingDirty() bool { return p.embeddingDirty }

// CreatedAt returns the creation timestamp.
func (p *Place) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last-modification timestamp.
func (p *Place) UpdatedAt() time.Time { return p.updatedAt }

// HasEmbedding reports whether the place is a similarity-search candidate.
func (p *Place) HasEmbedding() bool { return len(p.embedding) > 0 }

// SearchText returns the canonical text the embedding is derived from:
// the non-empty searchable fields joined by single spaces.
func (p *Place) SearchText() string {
	fields := []string{p.name, p.description, p.address, p.addressDetail, p.category}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// WithEmbedding returns a copy carrying the given vector and model,
// with the dirty flag cleared.
func (p *Place) WithEmbedding(vec []float32, model string) Place {
	c := *p
	c.embedding = vec
	c.embeddingModel = model
	c.embeddingDirty = false
	c.updatedAt = time.Now().UTC()
	return c
}

// WithDetails returns a copy with updated searchable fields. The existing
// embedding is kept but marked dirty: the next indexer run re-embeds it.
func (p *Place) WithDetails(name, description, address, addressDetail, category string, lon, lat float64) (Place, error) {
	updated, err := New(p.id, name, description, address, addressDetail, category, lon, lat)
	if err != nil {
		return Place{}, err
	}
	updated.embedding = p.embedding
	updated.embeddingModel = p.embeddingModel
	updated.embeddingDirty = p.HasEmbedding()
	updated.createdAt = p.createdAt
	return updated, nil
}

// Stripped returns a display-safe copy without the embedding vector or
// model identifier. Rankings hand these to the UI and chat layers.
func (p *Place) Stripped() Place {
	c := *p
	c.embedding = nil
	c.embeddingModel = ""
	return c
}
