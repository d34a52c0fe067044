package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Allegre7tto/SearchEngineDemo/internal/posting"
	"github.com/Allegre7tto/SearchEngineDemo/internal/store"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/metrics"
)

// ScoredResult is one ranked hit: the document, its display content, and its
// accumulated BM25 score.
type ScoredResult struct {
	DocumentID int     `json:"document_id"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// Evaluator runs a query end to end: tokenize, fetch postings, score per
// (term, document) pair, aggregate per document, rank, and truncate.
type Evaluator struct {
	reader     store.IndexReader
	scorer     *Scorer
	popularity *Popularity
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewEvaluator creates an Evaluator. popularity and metrics may be nil.
func NewEvaluator(reader store.IndexReader, scorer *Scorer, popularity *Popularity, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		reader:     reader,
		scorer:     scorer,
		popularity: popularity,
		metrics:    m,
		logger:     slog.Default().With("component", "query-evaluator"),
	}
}

// Search returns up to topK documents ranked by descending BM25 score, ties
// broken by ascending document id. A blank query returns an empty result
// without touching the store.
func (e *Evaluator) Search(ctx context.Context, query string, topK int) ([]ScoredResult, error) {
	start := time.Now()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		e.countQuery("empty")
		return []ScoredResult{}, nil
	}
	terms := strings.Fields(strings.ToLower(trimmed))

	// Popularity counts every occurrence of a repeated term; scoring below
	// sees each distinct term once, matching the one-row-per-term store read.
	if e.popularity != nil {
		e.popularity.Increment(ctx, terms)
	}

	rows, err := e.reader.PostingsForTerms(ctx, terms)
	if err != nil {
		e.countQuery("error")
		return nil, fmt.Errorf("fetching postings for query %q: %w", query, err)
	}

	documentScores := make(map[int]float64)
	for _, row := range rows {
		positions := posting.DecodePositions(row.Positions)
		documentFrequency := posting.DocumentFrequency(positions)

		for docID, termPositions := range positions {
			termFrequency := len(termPositions)
			score, err := e.scorer.Score(ctx, row.Term, docID, termFrequency, documentFrequency)
			if err != nil {
				e.countQuery("error")
				return nil, err
			}
			documentScores[docID] += score
		}
	}

	results := make([]ScoredResult, 0, len(documentScores))
	for docID, score := range documentScores {
		if score == 0 {
			continue
		}
		content, err := e.reader.DocumentContent(ctx, docID)
		if err != nil {
			e.countQuery("error")
			return nil, fmt.Errorf("fetching content of document %d: %w", docID, err)
		}
		results = append(results, ScoredResult{DocumentID: docID, Content: content, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocumentID < results[j].DocumentID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	if len(results) == 0 {
		e.countQuery("zero_result")
	} else {
		e.countQuery("hit")
	}
	if e.metrics != nil {
		e.metrics.SearchLatency.Observe(time.Since(start).Seconds())
		e.metrics.SearchResultsCount.Observe(float64(len(results)))
	}
	e.logger.Info("query evaluated",
		"query", query,
		"terms", terms,
		"results", len(results),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}

func (e *Evaluator) countQuery(resultType string) {
	if e.metrics != nil {
		e.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}
