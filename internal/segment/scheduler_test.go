package segment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Allegre7tto/SearchEngineDemo/internal/store"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/config"
	apperrors "github.com/Allegre7tto/SearchEngineDemo/pkg/errors"
)

type fakeSource struct {
	mu     sync.Mutex
	shards map[string][]store.Document
	marked []string
}

func (f *fakeSource) ListShard(ctx context.Context, shardKey string) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shards[shardKey], nil
}

func (f *fakeSource) MarkShardProcessed(ctx context.Context, shardKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, shardKey)
	return nil
}

type fakeLengths struct {
	mu      sync.Mutex
	lengths map[int]int
}

func (f *fakeLengths) SetDocumentLength(ctx context.Context, shardKey string, docID, length int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lengths == nil {
		f.lengths = make(map[int]int)
	}
	f.lengths[docID] = length
	return nil
}

type fakeEmitter struct {
	mu      sync.Mutex
	emitted map[int]map[string][]int
	failFor map[int]bool
}

func (f *fakeEmitter) Emit(ctx context.Context, docID int, termPositions map[string][]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[docID] {
		return errors.New("emit failed")
	}
	if f.emitted == nil {
		f.emitted = make(map[int]map[string][]int)
	}
	f.emitted[docID] = termPositions
	return nil
}

func newTestScheduler(source *fakeSource, lengths *fakeLengths, emitter *fakeEmitter, shards int) *Scheduler {
	return NewScheduler(source, lengths, WhitespaceTokenizer{}, emitter, config.SegmenterConfig{
		Shards:          shards,
		Workers:         4,
		ShutdownTimeout: 5 * time.Second,
	}, nil)
}

func TestSchedulerProcessesAllShards(t *testing.T) {
	source := &fakeSource{shards: map[string][]store.Document{
		"0": {{ID: 1, Content: "cat sat"}, {ID: 2, Content: "dog ran"}},
		"1": {{ID: 3, Content: "cat cat"}},
	}}
	lengths := &fakeLengths{}
	emitter := &fakeEmitter{}
	s := newTestScheduler(source, lengths, emitter, 2)

	ctx := context.Background()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if len(source.marked) != 2 {
		t.Errorf("marked %d shards, want 2", len(source.marked))
	}
	if len(emitter.emitted) != 3 {
		t.Fatalf("emitted for %d documents, want 3", len(emitter.emitted))
	}
	if got := emitter.emitted[3]["cat"]; len(got) != 2 {
		t.Errorf("doc 3 cat positions = %v, want two entries", got)
	}
	if lengths.lengths[1] != 2 || lengths.lengths[3] != 2 {
		t.Errorf("recorded lengths = %v, want 2 tokens per document", lengths.lengths)
	}
}

func TestSchedulerOneBadDocumentDoesNotAbortSiblings(t *testing.T) {
	source := &fakeSource{shards: map[string][]store.Document{
		"0": {{ID: 1, Content: "a"}, {ID: 2, Content: "b"}, {ID: 3, Content: "c"}},
	}}
	emitter := &fakeEmitter{failFor: map[int]bool{2: true}}
	s := newTestScheduler(source, &fakeLengths{}, emitter, 1)

	ctx := context.Background()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if len(emitter.emitted) != 2 {
		t.Errorf("emitted for %d documents, want 2 (doc 2 fails)", len(emitter.emitted))
	}
	if _, ok := emitter.emitted[2]; ok {
		t.Error("doc 2 should have failed emission")
	}
}

func TestSchedulerRejectsRunAfterShutdown(t *testing.T) {
	source := &fakeSource{shards: map[string][]store.Document{}}
	s := newTestScheduler(source, &fakeLengths{}, &fakeEmitter{}, 1)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := s.Run(context.Background()); !errors.Is(err, apperrors.ErrPipelineClosed) {
		t.Errorf("Run after shutdown = %v, want ErrPipelineClosed", err)
	}
}
