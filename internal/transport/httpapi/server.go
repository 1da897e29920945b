// Package httpapi exposes place retrieval over HTTP with chi routing.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
	"github.com/vangona/jeju-guide-sub000/internal/logger"
	"github.com/vangona/jeju-guide-sub000/internal/usecase/chatctx"
	healthuc "github.com/vangona/jeju-guide-sub000/internal/usecase/health"
	indexeruc "github.com/vangona/jeju-guide-sub000/internal/usecase/indexer"
	placeuc "github.com/vangona/jeju-guide-sub000/internal/usecase/place"
	searchuc "github.com/vangona/jeju-guide-sub000/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers over the usecase services.
type Server struct {
	places        *placeuc.Service
	search        *searchuc.Service
	chat          *chatctx.Formatter
	indexer       *indexeruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	places *placeuc.Service,
	search *searchuc.Service,
	chat *chatctx.Formatter,
	indexer *indexeruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		places:  places,
		search:  search,
		chat:    chat,
		indexer: indexer,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeEmptyQuery),
		sentinelHandler(domain.ErrInvalidLimit, http.StatusBadRequest, CodeInvalidLimit),
		sentinelHandler(domain.ErrPlaceNotFound, http.StatusNotFound, CodePlaceNotFound),
		sentinelHandler(domain.ErrPlaceExists, http.StatusConflict, CodePlaceExists),
		sentinelHandler(domain.ErrInvalidPlace, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
	}
	return s
}

// Routes registers all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.SearchPlaces)
		r.Get("/chat/context", s.GetChatContext)
		r.Post("/reindex", s.Reindex)

		r.Route("/places", func(r chi.Router) {
			r.Post("/", s.CreatePlace)
			r.Get("/", s.ListPlaces)
			r.Get("/{placeID}", s.GetPlace)
			r.Put("/{placeID}", s.UpdatePlace)
			r.Delete("/{placeID}", s.DeletePlace)
		})
	})
}

// SearchPlaces handles POST /api/v1/search.
func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	matches, err := s.search.RankScored(r.Context(), req.Query, req.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results := make([]SearchResultItem, len(matches))
	for i := range matches {
		p := matches[i].Place()
		results[i] = SearchResultItem{Place: placeToResponse(&p)}
		if req.WithScores {
			score := matches[i].Score()
			results[i].Score = &score
		}
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetChatContext handles GET /api/v1/chat/context?query=...&limit=N.
func (s *Server) GetChatContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid limit: "+raw)
			return
		}
		limit = parsed
	}

	block, err := s.chat.BuildContext(r.Context(), query, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatContextResponse{Context: block})
}

// Reindex handles POST /api/v1/reindex. With ?all=true every place is
// re-embedded, not just pending ones. The run is synchronous; the corpus
// is small enough that the report fits in one request.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "true"

	report, err := s.indexer.Run(r.Context(), all)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ReindexResponse{
		Total:      report.Total,
		Embedded:   report.Embedded,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		DurationMS: report.Duration.Milliseconds(),
	})
}

// CreatePlace handles POST /api/v1/places.
func (s *Server) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := s.places.Create(r.Context(), req.toInput())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, placeToResponse(&p))
}

// ListPlaces handles GET /api/v1/places?cursor=...&limit=N.
func (s *Server) ListPlaces(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid limit: "+raw)
			return
		}
		limit = parsed
	}

	places, nextCursor, err := s.places.List(r.Context(), cursor, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]PlaceResponse, len(places))
	for i := range places {
		items[i] = placeToResponse(&places[i])
	}

	writeJSON(w, http.StatusOK, PlaceListResponse{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	})
}

// GetPlace handles GET /api/v1/places/{placeID}.
func (s *Server) GetPlace(w http.ResponseWriter, r *http.Request) {
	p, err := s.places.Get(r.Context(), chi.URLParam(r, "placeID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, placeToResponse(&p))
}

// UpdatePlace handles PUT /api/v1/places/{placeID}.
func (s *Server) UpdatePlace(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := s.places.Update(r.Context(), chi.URLParam(r, "placeID"), req.toInput())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, placeToResponse(&p))
}

// DeletePlace handles DELETE /api/v1/places/{placeID}.
func (s *Server) DeletePlace(w http.ResponseWriter, r *http.Request) {
	if err := s.places.Delete(r.Context(), chi.URLParam(r, "placeID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /health. Degraded still answers 200; only a dead
// place store flips the status code.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidLimit,
		domain.ErrPlaceNotFound,
		domain.ErrPlaceExists,
		domain.ErrInvalidPlace,
		domain.ErrVectorDimMismatch,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Prefer the request-scoped logger so the request id travels with the error.
	reqLog := logger.From(r.Context())
	reqLog.Warn("domain error", zap.Error(err))

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
