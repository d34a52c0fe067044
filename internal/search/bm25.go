package search

import (
	"context"
	"fmt"
	"math"

	"github.com/Allegre7tto/SearchEngineDemo/pkg/config"
)

// DocumentLengthReader fetches the stored token count of one document.
type DocumentLengthReader interface {
	DocumentLength(ctx context.Context, docID int) (int, error)
}

// Scorer computes BM25 relevance scores over the cached corpus statistics.
// Document lengths are read from the store per call; they vary per document
// and are not part of the corpus aggregates.
type Scorer struct {
	k1      float64
	b       float64
	stats   *StatsCache
	lengths DocumentLengthReader
}

// NewScorer creates a Scorer with the configured k1/b parameters.
func NewScorer(cfg config.BM25Config, stats *StatsCache, lengths DocumentLengthReader) *Scorer {
	k1 := cfg.K1
	if k1 <= 0 {
		k1 = 1.2
	}
	b := cfg.B
	if b < 0 || b > 1 {
		b = 0.75
	}
	return &Scorer{k1: k1, b: b, stats: stats, lengths: lengths}
}

// Score returns the BM25 score for a term occurring termFrequency times in
// document docID, where documentFrequency documents contain the term.
//
// The IDF is ln((N - df + 0.5)/(df + 0.5) + 1); the +1 inside the logarithm
// keeps the weight non-negative even when a term appears in every document.
// A zero term or document frequency scores 0 outright.
func (s *Scorer) Score(ctx context.Context, term string, docID, termFrequency, documentFrequency int) (float64, error) {
	if termFrequency == 0 || documentFrequency == 0 {
		return 0, nil
	}

	n, err := s.stats.TotalDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("scoring term %q: %w", term, err)
	}
	idf := math.Log((float64(n)-float64(documentFrequency)+0.5)/(float64(documentFrequency)+0.5) + 1)

	docLength, err := s.lengths.DocumentLength(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("scoring term %q in document %d: %w", term, docID, err)
	}
	avgDocLength, err := s.stats.AverageDocumentLength(ctx)
	if err != nil {
		return 0, fmt.Errorf("scoring term %q: %w", term, err)
	}
	if avgDocLength == 0 {
		return 0, nil
	}

	normalizationFactor := 1 - s.b + s.b*(float64(docLength)/avgDocLength)
	tf := float64(termFrequency)
	return idf * ((s.k1 + 1) * tf) / (s.k1*normalizationFactor + tf), nil
}
