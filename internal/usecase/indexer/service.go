// Package indexer runs the batch embedding pipeline: derive canonical search
// text per place, obtain an embedding, and flush staged upserts in fixed-size
// batches. One place's failure never aborts the run.
package indexer

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vangona/jeju-guide-sub000/internal/domain"
	"github.com/vangona/jeju-guide-sub000/internal/metrics"
)

// DefaultFlushSize is the number of staged upserts written per flush.
const DefaultFlushSize = 50

// Report summarizes an indexer run.
type Report struct {
	Total    int
	Embedded int
	Skipped  int
	Failed   int
	Duration time.Duration
}

// Service orchestrates a batch embedding run.
type Service struct {
	places    PlaceLister
	writer    EmbeddingWriter
	embed     domain.Embedder
	limiter   *rate.Limiter
	flushSize int
	workers   int
	logger    *zap.Logger
}

// New creates an indexer service. Runs are sequential with an unlimited
// rate by default; tune with WithRateLimit and WithWorkers.
func New(places PlaceLister, writer EmbeddingWriter, embed domain.Embedder, logger *zap.Logger) *Service {
	return &Service{
		places:    places,
		writer:    writer,
		embed:     embed,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		flushSize: DefaultFlushSize,
		workers:   1,
		logger:    logger,
	}
}

// WithFlushSize configures the staged-upsert batch size.
func (s *Service) WithFlushSize(size int) *Service {
	if size > 0 {
		s.flushSize = size
	}
	return s
}

// WithRateLimit caps provider calls at perSec requests per second
// (token bucket). Zero or negative disables the cap.
func (s *Service) WithRateLimit(perSec float64) *Service {
	if perSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
	return s
}

// WithWorkers sets the bounded worker pool size. The limiter is shared, so
// more workers raise concurrency, not the provider call rate.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// Run embeds pending places (missing or dirty embeddings), or every place
// when all=true. Per-place provider failures are counted and skipped;
// context cancellation stops the run after flushing staged work.
func (s *Service) Run(ctx context.Context, all bool) (Report, error) {
	start := time.Now()

	places, err := s.places.ListPending(ctx, all)
	if err != nil {
		return Report{}, err
	}

	report := Report{Total: len(places)}
	if len(places) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	var embedded, skipped, failed atomic.Int64

	// Single collector goroutine preserves the batched flush discipline
	// regardless of worker count.
	updates := make(chan domain.EmbeddingUpdate, s.flushSize)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		staged := make([]domain.EmbeddingUpdate, 0, s.flushSize)
		flush := func() {
			if len(staged) == 0 {
				return
			}
			// Flush with a fresh context so cancellation does not lose
			// embeddings already paid for.
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.writer.UpsertEmbeddings(flushCtx, staged); err != nil {
				s.logger.Error("Failed to flush staged embeddings",
					zap.Int("count", len(staged)), zap.Error(err))
				failed.Add(int64(len(staged)))
			} else {
				embedded.Add(int64(len(staged)))
			}
			staged = staged[:0]
		}
		for u := range updates {
			staged = append(staged, u)
			if len(staged) >= s.flushSize {
				flush()
			}
		}
		flush()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, p := range places {
		g.Go(func() error {
			text := strings.TrimSpace(p.SearchText())
			if text == "" {
				s.logger.Debug("Skipping place with empty search text", zap.String("place_id", p.ID()))
				skipped.Add(1)
				return nil
			}

			if err := s.limiter.Wait(gctx); err != nil {
				return err // cancellation, stop the pool
			}

			res, err := s.embed.Embed(gctx, text)
			if err != nil {
				s.logger.Warn("Failed to embed place",
					zap.String("place_id", p.ID()), zap.Error(err))
				failed.Add(1)
				return nil
			}

			updates <- domain.EmbeddingUpdate{
				PlaceID: p.ID(),
				Vector:  res.Embedding,
				Model:   res.Model,
			}
			return nil
		})
	}

	runErr := g.Wait()
	close(updates)
	<-collectorDone

	report.Embedded = int(embedded.Load())
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())
	report.Duration = time.Since(start)

	metrics.IndexerPlacesTotal.WithLabelValues("embedded").Add(float64(report.Embedded))
	metrics.IndexerPlacesTotal.WithLabelValues("skipped").Add(float64(report.Skipped))
	metrics.IndexerPlacesTotal.WithLabelValues("failed").Add(float64(report.Failed))
	metrics.IndexerRunDuration.Observe(report.Duration.Seconds())

	s.logger.Info("Indexer run finished",
		zap.Int("total", report.Total),
		zap.Int("embedded", report.Embedded),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)

	return report, runErr
}
