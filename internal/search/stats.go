// Package search implements the ranking engine: corpus statistics caching,
// BM25 scoring, the multi-term query evaluator, the query-term popularity
// counter, and the HTTP API in front of them.
package search

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Allegre7tto/SearchEngineDemo/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// CorpusStatsReader is the slice of the index store the statistics cache
// reads from.
type CorpusStatsReader interface {
	TotalDocumentCount(ctx context.Context) (int, error)
	AverageDocumentLength(ctx context.Context) (float64, error)
}

// StatsCache lazily caches corpus-level aggregates. Each value is either
// unset (the next read fetches it from the store) or cached (reads are pure
// memory until Invalidate). Concurrent first reads collapse into a single
// store call via singleflight. There is no automatic expiry; callers decide
// when staleness is unacceptable and call Invalidate.
type StatsCache struct {
	reader  CorpusStatsReader
	group   singleflight.Group
	mu      sync.RWMutex
	total   int
	totalOK bool
	avg     float64
	avgOK   bool
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewStatsCache creates an empty (unset) cache. metrics may be nil.
func NewStatsCache(reader CorpusStatsReader, m *metrics.Metrics) *StatsCache {
	return &StatsCache{
		reader:  reader,
		metrics: m,
		logger:  slog.Default().With("component", "stats-cache"),
	}
}

// TotalDocuments returns the cached corpus document count, fetching it from
// the store on first use.
func (c *StatsCache) TotalDocuments(ctx context.Context) (int, error) {
	c.mu.RLock()
	if c.totalOK {
		v := c.total
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("total_documents", func() (any, error) {
		c.mu.RLock()
		if c.totalOK {
			v := c.total
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		n, err := c.reader.TotalDocumentCount(ctx)
		if err != nil {
			return 0, err
		}
		c.mu.Lock()
		c.total = n
		c.totalOK = true
		c.mu.Unlock()
		c.logger.Debug("total documents cached", "value", n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// AverageDocumentLength returns the cached mean document length, fetching it
// from the store on first use.
func (c *StatsCache) AverageDocumentLength(ctx context.Context) (float64, error) {
	c.mu.RLock()
	if c.avgOK {
		v := c.avg
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("average_document_length", func() (any, error) {
		c.mu.RLock()
		if c.avgOK {
			v := c.avg
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		avg, err := c.reader.AverageDocumentLength(ctx)
		if err != nil {
			return float64(0), err
		}
		c.mu.Lock()
		c.avg = avg
		c.avgOK = true
		c.mu.Unlock()
		c.logger.Debug("average document length cached", "value", avg)
		return avg, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Invalidate clears both values to unset, forcing the next read of each to
// refetch from the store.
func (c *StatsCache) Invalidate() {
	c.mu.Lock()
	c.totalOK = false
	c.avgOK = false
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.StatsRefreshTotal.Inc()
	}
	c.logger.Info("corpus statistics invalidated")
}

// Warm populates both values eagerly, typically at service startup.
func (c *StatsCache) Warm(ctx context.Context) error {
	if _, err := c.TotalDocuments(ctx); err != nil {
		return err
	}
	if _, err := c.AverageDocumentLength(ctx); err != nil {
		return err
	}
	return nil
}
