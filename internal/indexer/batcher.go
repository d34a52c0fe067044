// Package indexer implements the consumer side of the indexing pipeline: a
// Kafka consumer feeding a batcher that coalesces posting events and commits
// them to the index store.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Allegre7tto/SearchEngineDemo/internal/posting"
	"github.com/Allegre7tto/SearchEngineDemo/internal/store"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/config"
	apperrors "github.com/Allegre7tto/SearchEngineDemo/pkg/errors"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/metrics"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/resilience"
)

// Batcher accumulates posting events and flushes them to the index store
// either when the buffer reaches the configured size or on a recurring
// interval, whichever comes first.
//
// A flush drains at most one batch worth of events and commits them in a
// single transactional write. The write is retried a few times on failure;
// if it still fails the error propagates to the caller and the drained
// events are dropped, not re-enqueued. With at-least-once delivery upstream
// the same event may be appended twice after a redelivery; appends are not
// deduplicated.
type Batcher struct {
	writer   store.IndexWriter
	mu       sync.Mutex
	buffer   []posting.Event
	size     int
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	stop     chan struct{}
	done     chan struct{}
	started  bool
	closed   atomic.Bool
}

// NewBatcher creates a Batcher flushing to writer. metrics may be nil.
func NewBatcher(writer store.IndexWriter, cfg config.BatchConfig, m *metrics.Metrics) *Batcher {
	size := cfg.Size
	if size <= 0 {
		size = 50
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Batcher{
		writer:   writer,
		buffer:   make([]posting.Event, 0, size),
		size:     size,
		interval: interval,
		metrics:  m,
		logger:   slog.Default().With("component", "batcher"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic flush loop. Interval flush errors are logged
// and counted; the events of a failed batch are lost (see type doc).
func (b *Batcher) Start(ctx context.Context) {
	b.started = true
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := b.Flush(ctx); err != nil {
					b.logger.Error("periodic flush failed", "error", err)
				}
			case <-ctx.Done():
				return
			case <-b.stop:
				return
			}
		}
	}()
	b.logger.Info("batcher started", "batch_size", b.size, "flush_interval", b.interval)
}

// Enqueue buffers one event. Reaching the size threshold triggers an
// immediate synchronous flush whose error is returned to the caller, so a
// failed store write surfaces at the message handler and the message is not
// committed.
func (b *Batcher) Enqueue(ctx context.Context, ev posting.Event) error {
	if b.closed.Load() {
		return apperrors.ErrPipelineClosed
	}
	b.mu.Lock()
	b.buffer = append(b.buffer, ev)
	n := len(b.buffer)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.BatchBufferLen.Set(float64(n))
	}
	if n >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush drains up to one batch of buffered events and writes them to the
// index store. An empty buffer is a no-op.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		b.countFlush("empty")
		return nil
	}
	n := b.size
	if n > len(b.buffer) {
		n = len(b.buffer)
	}
	batch := b.buffer[:n]
	b.buffer = append(make([]posting.Event, 0, b.size), b.buffer[n:]...)
	b.mu.Unlock()

	err := resilience.Retry(ctx, "append-postings", resilience.RetryConfig{}, func() error {
		return b.writer.AppendPostings(ctx, batch)
	})
	if err != nil {
		b.countFlush("error")
		return fmt.Errorf("flushing batch of %d posting events: %w", len(batch), err)
	}

	b.countFlush("ok")
	if b.metrics != nil {
		b.metrics.BatchFlushSize.Observe(float64(len(batch)))
		b.mu.Lock()
		b.metrics.BatchBufferLen.Set(float64(len(b.buffer)))
		b.mu.Unlock()
	}
	b.logger.Debug("batch flushed", "events", len(batch))
	return nil
}

// Close stops the flush loop, rejects further enqueues, and synchronously
// drains everything still buffered. The first drain error is returned.
func (b *Batcher) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.stop)
	if b.started {
		<-b.done
	}
	for b.BufferLen() > 0 {
		if err := b.Flush(ctx); err != nil {
			return fmt.Errorf("final drain: %w", err)
		}
	}
	b.logger.Info("batcher drained and stopped")
	return nil
}

// BufferLen returns the current number of buffered events.
func (b *Batcher) BufferLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

func (b *Batcher) countFlush(status string) {
	if b.metrics != nil {
		b.metrics.BatchFlushesTotal.WithLabelValues(status).Inc()
	}
}
