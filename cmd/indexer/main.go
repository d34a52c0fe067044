// The indexer consumes posting events from Kafka, batches them, and commits
// them to the index store. It drains its buffer before exiting.
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

	"github.com/Allegre7tto/SearchEngineDemo/internal/indexer"
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
	slog.Info("starting indexer",
		"batch_size", cfg.Batch.Size,
		"flush_interval", cfg.Batch.Interval,
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batcher := indexer.NewBatcher(store.NewPostgres(pg), cfg.Batch, m)
	batcher.Start(ctx)

	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.PostingEvents,
		indexer.HandleMessage(batcher),
	)
	indexConsumer := indexer.NewConsumer(kafkaConsumer)

	slog.Info("indexer ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.PostingEvents,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := indexConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := batcher.Close(drainCtx); err != nil {
		slog.Error("final drain failed", "error", err)
	}

	slog.Info("indexer stopped")
}
