package search

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	pkgredis "github.com/Allegre7tto/SearchEngineDemo/pkg/redis"
)

const termCountKey = "search:terms:count"

// TermCount is one entry of the popularity leaderboard.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Popularity tracks how often query terms are searched, in a Redis hash.
// It is an observability aid, not part of ranking correctness: every
// operation is best-effort and a Redis outage never fails a query.
type Popularity struct {
	client *pkgredis.Client
	logger *slog.Logger
}

// NewPopularity creates a counter backed by the given Redis client.
func NewPopularity(client *pkgredis.Client) *Popularity {
	return &Popularity{
		client: client,
		logger: slog.Default().With("component", "popularity"),
	}
}

// Increment bumps the counter once per term occurrence. Errors are logged,
// not returned.
func (p *Popularity) Increment(ctx context.Context, terms []string) {
	for _, term := range terms {
		if _, err := p.client.HIncrBy(ctx, termCountKey, term, 1); err != nil {
			p.logger.Error("failed to increment term count", "term", term, "error", err)
			return
		}
	}
}

// TermCount returns how many times a term has been searched.
func (p *Popularity) TermCount(ctx context.Context, term string) (int64, error) {
	val, err := p.client.HGet(ctx, termCountKey, term)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// TopTerms returns the n most-searched terms, most popular first.
func (p *Popularity) TopTerms(ctx context.Context, n int) ([]TermCount, error) {
	entries, err := p.client.HGetAll(ctx, termCountKey)
	if err != nil {
		return nil, err
	}
	counts := make([]TermCount, 0, len(entries))
	for term, val := range entries {
		count, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		counts = append(counts, TermCount{Term: term, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Term < counts[j].Term
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts, nil
}

// ResetTerm clears the counter for one term.
func (p *Popularity) ResetTerm(ctx context.Context, term string) error {
	return p.client.HDel(ctx, termCountKey, term)
}

// ResetAll clears every term counter.
func (p *Popularity) ResetAll(ctx context.Context) error {
	return p.client.Del(ctx, termCountKey)
}
