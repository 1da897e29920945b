package httpapi

import (
	"time"

	domplace "github.com/vangona/jeju-guide-sub000/internal/domain/place"
	placeuc "github.com/vangona/jeju-guide-sub000/internal/usecase/place"
)

// ErrorCode identifies an API error class.
type ErrorCode string

const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeValidationFailed  ErrorCode = "validation_failed"
	CodeEmptyQuery        ErrorCode = "empty_query"
	CodeInvalidLimit      ErrorCode = "invalid_limit"
	CodePlaceNotFound     ErrorCode = "place_not_found"
	CodePlaceExists       ErrorCode = "place_already_exists"
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeEmbeddingProvider ErrorCode = "embedding_provider_error"
	CodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// PlaceRequest carries user-supplied place fields for create and update.
type PlaceRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Address       string  `json:"address,omitempty"`
	AddressDetail string  `json:"address_detail,omitempty"`
	Category      string  `json:"category,omitempty"`
	Longitude     float64 `json:"longitude"`
	Latitude      float64 `json:"latitude"`
}

func (r *PlaceRequest) toInput() placeuc.Input {
	return placeuc.Input{
		Name:          r.Name,
		Description:   r.Description,
		Address:       r.Address,
		AddressDetail: r.AddressDetail,
		Category:      r.Category,
		Longitude:     r.Longitude,
		Latitude:      r.Latitude,
	}
}

// PlaceResponse is the display-safe place representation. The embedding
// vector and model never appear here.
type PlaceResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Address       string    `json:"address,omitempty"`
	AddressDetail string    `json:"address_detail,omitempty"`
	Category      string    `json:"category,omitempty"`
	Longitude     float64   `json:"longitude"`
	Latitude      float64   `json:"latitude"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func placeToResponse(p *domplace.Place) PlaceResponse {
	return PlaceResponse{
		ID:            p.ID(),
		Name:          p.Name(),
		Description:   p.Description(),
		Address:       p.Address(),
		AddressDetail: p.AddressDetail(),
		Category:      p.Category(),
		Longitude:     p.Longitude(),
		Latitude:      p.Latitude(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}

// PlaceListResponse is a cursor page of places.
type PlaceListResponse struct {
	Items      []PlaceResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

// SearchRequest is the semantic search body.
type SearchRequest struct {
	Query      string `json:"query"`
	Limit      int    `json:"limit,omitempty"`
	WithScores bool   `json:"with_scores,omitempty"`
}

// SearchResultItem is one ranked hit. Score is present only when the
// caller asked for scores.
type SearchResultItem struct {
	Place PlaceResponse `json:"place"`
	Score *float64      `json:"score,omitempty"`
}

// SearchResponse is the ranked result list, best match first.
type SearchResponse struct {
	Results []SearchResultItem `json:"results"`
}

// ChatContextResponse carries the formatted LLM context block.
type ChatContextResponse struct {
	Context string `json:"context"`
}

// ReindexResponse reports an indexer run.
type ReindexResponse struct {
	Total      int   `json:"total"`
	Embedded   int   `json:"embedded"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	DurationMS int64 `json:"duration_ms"`
}

// HealthResponse is the component health report.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
