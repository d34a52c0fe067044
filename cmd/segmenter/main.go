// The segmenter runs one indexing pass over the document source: it claims
// each shard, tokenizes its documents on a bounded worker pool, and emits
// posting events to Kafka for the indexer service to consume.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Allegre7tto/SearchEngineDemo/internal/segment"
	"github.com/Allegre7tto/SearchEngineDemo/internal/store"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/config"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/kafka"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/logger"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/metrics"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting segmenter",
		"shards", cfg.Segmenter.Shards,
		"workers", cfg.Segmenter.Workers,
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	pg, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.PostingEvents)
	defer producer.Close()

	documents := store.NewPostgres(pg)
	emitter := segment.NewEmitter(producer, m)
	scheduler := segment.NewScheduler(
		documents,
		documents,
		segment.WhitespaceTokenizer{},
		emitter,
		cfg.Segmenter,
		m,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Run(ctx); err != nil {
		slog.Error("indexing run failed", "error", err)
	}

	slog.Info("all shards submitted, waiting for workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Segmenter.ShutdownTimeout+5*time.Second)
	defer cancel()
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		slog.Error("worker shutdown incomplete", "error", err)
	}

	slog.Info("segmenter finished")
}
