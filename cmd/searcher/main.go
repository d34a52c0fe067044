// The searcher serves the query API: BM25-ranked search over the index
// store, corpus statistics, the query-term popularity leaderboard, and an
// endpoint to trigger an indexing run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Allegre7tto/SearchEngineDemo/internal/search"
	"github.com/Allegre7tto/SearchEngineDemo/internal/segment"
	"github.com/Allegre7tto/SearchEngineDemo/internal/store"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/config"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/health"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/kafka"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/logger"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/metrics"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/middleware"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/postgres"
	pkgredis "github.com/Allegre7tto/SearchEngineDemo/pkg/redis"
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
	slog.Info("starting searcher", "port", cfg.Server.Port)

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

	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexStore := store.NewPostgres(pg)

	stats := search.NewStatsCache(indexStore, m)
	if err := stats.Warm(ctx); err != nil {
		slog.Warn("corpus statistics warm-up failed, will retry lazily", "error", err)
	}

	scorer := search.NewScorer(cfg.BM25, stats, indexStore)
	popularity := search.NewPopularity(redisClient)
	evaluator := search.NewEvaluator(indexStore, scorer, popularity, m)

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.PostingEvents)
	defer producer.Close()
	emitter := segment.NewEmitter(producer, m)
	scheduler := segment.NewScheduler(
		indexStore,
		indexStore,
		segment.WhitespaceTokenizer{},
		emitter,
		cfg.Segmenter,
		m,
	)

	handler := search.NewHandler(
		evaluator,
		stats,
		popularity,
		scheduler,
		cfg.Search.DefaultLimit,
		cfg.Search.MaxResults,
	)

	checker := health.NewChecker()
	checker.Register("postgres", health.DBCheck(pg.DB))
	checker.Register("redis", health.PingCheck(redisClient.Ping))

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("GET /healthz", checker.LiveHandler())
	mux.HandleFunc("GET /readyz", checker.ReadyHandler())

	var root http.Handler = mux
	root = middleware.Timeout(cfg.Server.RequestTimeout)(root)
	if m != nil {
		root = middleware.Metrics(m)(root)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("searcher listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down searcher")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if err := scheduler.Shutdown(shutdownCtx); err != nil {
		slog.Error("segmentation shutdown incomplete", "error", err)
	}

	slog.Info("searcher stopped")
}
