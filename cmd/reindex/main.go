// Command reindex runs one batch embedding pass over the place corpus and
// exits. Meant for cron and for backfills after a model switch (-all).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vangona/jeju-guide-sub000/internal/config"
	dbRedis "github.com/vangona/jeju-guide-sub000/internal/db/redis"
	"github.com/vangona/jeju-guide-sub000/internal/domain"
	logpkg "github.com/vangona/jeju-guide-sub000/internal/logger"
	"github.com/vangona/jeju-guide-sub000/internal/metrics"
	"github.com/vangona/jeju-guide-sub000/internal/repository/embcache"
	placerepo "github.com/vangona/jeju-guide-sub000/internal/repository/place"
	openaiEmb "github.com/vangona/jeju-guide-sub000/internal/transport/openai"
	indexeruc "github.com/vangona/jeju-guide-sub000/internal/usecase/indexer"
)

const defaultVectorDim = 1536

func main() {
	all := flag.Bool("all", false, "re-embed every place, not just pending ones")
	envFlag := flag.String("env", "", "config environment (overrides ENV)")
	flag.Parse()

	_ = godotenv.Load()

	env := *envFlag
	if env == "" {
		env = config.GetEnv()
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.RegisterMetrics()

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
	var embedder domain.Embedder = embcache.New(base, cfg.Embedding.Model, store, metrics.EmbeddingCacheTotal, logger)
	if cfg.Embedding.DocumentInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.DocumentInstruction)
	}

	vectorDim := cfg.Embedding.Dimensions
	if vectorDim == 0 {
		vectorDim = defaultVectorDim
	}

	repo := placerepo.New(store).WithHNSW(placerepo.HNSWConfig{
		M:           cfg.Indexer.HNSWM,
		EFConstruct: cfg.Indexer.HNSWEF,
	})
	if err := repo.EnsureIndex(ctx, vectorDim); err != nil {
		logger.Fatal("Failed to ensure place index", zap.Error(err))
	}

	svc := indexeruc.New(repo, repo, embedder, logger).
		WithFlushSize(cfg.Indexer.FlushSize).
		WithWorkers(cfg.Indexer.Workers).
		WithRateLimit(cfg.Indexer.RatePerSec)

	report, err := svc.Run(ctx, *all)
	if err != nil {
		logger.Fatal("Indexer run failed", zap.Error(err))
	}

	fmt.Printf("total=%d embedded=%d skipped=%d failed=%d duration=%s\n",
		report.Total, report.Embedded, report.Skipped, report.Failed, report.Duration.Round(time.Millisecond))

	// Every attempted place failing means the provider or store is down.
	attempted := report.Total - report.Skipped
	if attempted > 0 && report.Failed == attempted {
		os.Exit(1)
	}
}
