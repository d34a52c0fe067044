package segment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Allegre7tto/SearchEngineDemo/internal/store"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/config"
	apperrors "github.com/Allegre7tto/SearchEngineDemo/pkg/errors"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/metrics"
	"golang.org/x/sync/semaphore"
)

// PostingEmitter receives a document's extracted term positions.
type PostingEmitter interface {
	Emit(ctx context.Context, docID int, termPositions map[string][]int) error
}

// LengthRecorder persists a document's derived token count.
type LengthRecorder interface {
	SetDocumentLength(ctx context.Context, shardKey string, docID, length int) error
}

// Scheduler walks the document source shard by shard and dispatches each
// document to a bounded worker pool that tokenizes it and emits posting
// events. Submission is fire-and-forget: Run returns once all work has been
// handed to workers, and durability is the batch consumer's job. Call
// Shutdown to wait for in-flight workers.
type Scheduler struct {
	source    store.DocumentSource
	lengths   LengthRecorder
	tokenizer Tokenizer
	emitter   PostingEmitter
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
	closed    atomic.Bool
	cfg       config.SegmenterConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler with a worker pool of cfg.Workers slots.
// metrics may be nil.
func NewScheduler(
	source store.DocumentSource,
	lengths LengthRecorder,
	tokenizer Tokenizer,
	emitter PostingEmitter,
	cfg config.SegmenterConfig,
	m *metrics.Metrics,
) *Scheduler {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		source:    source,
		lengths:   lengths,
		tokenizer: tokenizer,
		emitter:   emitter,
		sem:       semaphore.NewWeighted(int64(workers)),
		cfg:       cfg,
		metrics:   m,
		logger:    slog.Default().With("component", "segment-scheduler"),
	}
}

// Run iterates over every shard of the document source. For each shard it
// lists the pending documents, marks the shard as claimed, and submits each
// document to the worker pool. It does not wait for workers to finish a
// shard before moving to the next one; a failing shard read is logged and
// skipped so one bad shard cannot stop the run.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.closed.Load() {
		return apperrors.ErrPipelineClosed
	}
	for _, shardKey := range store.ShardKeys(s.cfg.Shards) {
		if ctx.Err() != nil {
			return fmt.Errorf("indexing run aborted: %w", ctx.Err())
		}
		docs, err := s.source.ListShard(ctx, shardKey)
		if err != nil {
			s.logger.Error("failed to list shard, skipping", "shard", shardKey, "error", err)
			continue
		}
		if err := s.source.MarkShardProcessed(ctx, shardKey); err != nil {
			s.logger.Error("failed to mark shard processed", "shard", shardKey, "error", err)
			continue
		}
		s.logger.Info("shard submitted", "shard", shardKey, "documents", len(docs))

		for _, doc := range docs {
			if err := s.submit(ctx, shardKey, doc); err != nil {
				return err
			}
		}
	}
	return nil
}

// submit blocks until a worker slot is free, providing backpressure against
// the shard loop when tokenization falls behind.
func (s *Scheduler) submit(ctx context.Context, shardKey string, doc store.Document) error {
	if s.closed.Load() {
		return apperrors.ErrPipelineClosed
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring worker slot: %w", err)
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		s.process(ctx, shardKey, doc)
	}()
	return nil
}

// process runs one document through tokenize, extract, and emit. Failures
// are logged and counted; they never abort sibling documents or the shard
// loop.
func (s *Scheduler) process(ctx context.Context, shardKey string, doc store.Document) {
	tokens := s.tokenizer.Tokenize(doc.Content)
	termPositions := ExtractPositions(tokens)

	length := 0
	for _, positions := range termPositions {
		length += len(positions)
	}
	if err := s.lengths.SetDocumentLength(ctx, shardKey, doc.ID, length); err != nil {
		s.logger.Error("failed to record document length", "doc_id", doc.ID, "error", err)
	}

	if err := s.emitter.Emit(ctx, doc.ID, termPositions); err != nil {
		s.logger.Error("document processing failed", "doc_id", doc.ID, "shard", shardKey, "error", err)
		s.countDoc("error")
		return
	}
	s.countDoc("ok")
}

// Shutdown stops accepting new submissions and waits for in-flight workers
// up to the configured timeout.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.closed.Store(true)

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("all segmentation workers finished")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("waiting for segmentation workers: %w", apperrors.ErrTimeout)
	case <-ctx.Done():
		return fmt.Errorf("waiting for segmentation workers: %w", ctx.Err())
	}
}

func (s *Scheduler) countDoc(status string) {
	if s.metrics != nil {
		s.metrics.DocsSegmentedTotal.WithLabelValues(status).Inc()
	}
}
