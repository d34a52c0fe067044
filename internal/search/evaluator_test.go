package search

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/Allegre7tto/SearchEngineDemo/internal/store"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/config"
)

type fakeIndex struct {
	calls    atomic.Int64
	total    int
	avg      float64
	lengths  map[int]int
	contents map[int]string
	postings map[string]string
}

func (f *fakeIndex) TotalDocumentCount(ctx context.Context) (int, error) {
	f.calls.Add(1)
	return f.total, nil
}

func (f *fakeIndex) AverageDocumentLength(ctx context.Context) (float64, error) {
	f.calls.Add(1)
	return f.avg, nil
}

func (f *fakeIndex) DocumentLength(ctx context.Context, docID int) (int, error) {
	f.calls.Add(1)
	return f.lengths[docID], nil
}

func (f *fakeIndex) DocumentContent(ctx context.Context, docID int) (string, error) {
	f.calls.Add(1)
	return f.contents[docID], nil
}

func (f *fakeIndex) PostingsForTerms(ctx context.Context, terms []string) ([]store.TermPostings, error) {
	f.calls.Add(1)
	seen := make(map[string]bool)
	var rows []store.TermPostings
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true
		if positions, ok := f.postings[term]; ok {
			rows = append(rows, store.TermPostings{Term: term, Positions: positions})
		}
	}
	return rows, nil
}

func newTestEvaluator(index *fakeIndex) *Evaluator {
	cache := NewStatsCache(index, nil)
	scorer := NewScorer(config.BM25Config{K1: 1.2, B: 0.75}, cache, index)
	return NewEvaluator(index, scorer, nil, nil)
}

func TestSearchRanksMultiTermMatchHigher(t *testing.T) {
	index := &fakeIndex{
		total:    2,
		avg:      5,
		lengths:  map[int]int{1: 5, 2: 5},
		contents: map[int]string{1: "the cat", 2: "cat and dog and cat"},
		postings: map[string]string{
			"cat": "1:0,2:0,2:4",
			"dog": "2:1",
		},
	}
	e := newTestEvaluator(index)

	results, err := e.Search(context.Background(), "cat dog", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].DocumentID != 2 {
		t.Errorf("top result = doc %d, want doc 2 (matches both terms)", results[0].DocumentID)
	}
	if results[1].DocumentID != 1 {
		t.Errorf("second result = doc %d, want doc 1", results[1].DocumentID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %v <= %v", results[0].Score, results[1].Score)
	}
	if results[0].Content != "cat and dog and cat" {
		t.Errorf("top result content = %q", results[0].Content)
	}
}

func TestSearchEmptyQueryNoStoreCalls(t *testing.T) {
	index := &fakeIndex{}
	e := newTestEvaluator(index)

	for _, query := range []string{"", "   ", "\t\n"} {
		results, err := e.Search(context.Background(), query, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", query, err)
		}
		if len(results) != 0 {
			t.Errorf("Search(%q) returned %d results, want 0", query, len(results))
		}
	}
	if calls := index.calls.Load(); calls != 0 {
		t.Errorf("blank queries made %d store calls, want 0", calls)
	}
}

func TestSearchUnknownTermReturnsEmpty(t *testing.T) {
	index := &fakeIndex{total: 3, avg: 4, postings: map[string]string{}}
	e := newTestEvaluator(index)

	results, err := e.Search(context.Background(), "zebra", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results for unknown term, want 0", len(results))
	}
}

func TestSearchTruncatesToTopK(t *testing.T) {
	index := &fakeIndex{
		total: 5,
		avg:   3,
		lengths: map[int]int{
			1: 3, 2: 3, 3: 3, 4: 3, 5: 3,
		},
		contents: map[int]string{
			1: "a", 2: "b", 3: "c", 4: "d", 5: "e",
		},
		postings: map[string]string{
			"cat": "1:0,2:0,3:0,4:0,5:0",
		},
	}
	e := newTestEvaluator(index)

	results, err := e.Search(context.Background(), "cat", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

// Documents with identical scores come back ordered by ascending id so test
// runs and pagination are reproducible.
func TestSearchTieBreakByDocumentID(t *testing.T) {
	index := &fakeIndex{
		total:    4,
		avg:      3,
		lengths:  map[int]int{3: 3, 1: 3, 2: 3},
		contents: map[int]string{3: "c", 1: "a", 2: "b"},
		postings: map[string]string{
			"cat": "3:0,1:0,2:0",
		},
	}
	e := newTestEvaluator(index)

	results, err := e.Search(context.Background(), "cat", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []int{1, 2, 3} {
		if results[i].DocumentID != want {
			t.Errorf("result[%d] = doc %d, want doc %d", i, results[i].DocumentID, want)
		}
	}
}

func TestSearchSkipsMalformedPostingEntries(t *testing.T) {
	index := &fakeIndex{
		total:    2,
		avg:      4,
		lengths:  map[int]int{2: 4},
		contents: map[int]string{2: "valid"},
		postings: map[string]string{
			"cat": "1:x,2:5",
		},
	}
	e := newTestEvaluator(index)

	results, err := e.Search(context.Background(), "cat", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].DocumentID != 2 {
		t.Fatalf("results = %+v, want only doc 2", results)
	}
}
