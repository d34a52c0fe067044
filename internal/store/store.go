// Package store defines the contracts the indexing pipeline and search
// service have against the document source and the index store, together
// with the PostgreSQL implementation of both.
package store

import (
	"context"
	"fmt"

	"github.com/Allegre7tto/SearchEngineDemo/internal/posting"
)

// Document is a row of the document source: the raw text to index plus its
// identity. Length is derived at write time and stored alongside the content.
type Document struct {
	ID      int
	Content string
}

// TermPostings is one row of a batched posting read: the term and its posting
// list in storage form (see package posting for the codec).
type TermPostings struct {
	Term      string
	Positions string
}

// DocumentSource enumerates and claims document shards for indexing.
type DocumentSource interface {
	// ListShard returns the unprocessed documents of one shard.
	ListShard(ctx context.Context, shardKey string) ([]Document, error)
	// MarkShardProcessed records that a shard has been claimed. The write is
	// idempotent; repeated indexing runs skip marked shards.
	MarkShardProcessed(ctx context.Context, shardKey string) error
}

// IndexWriter commits posting batches to the index store. Appends accumulate;
// existing postings for a term are never overwritten.
type IndexWriter interface {
	AppendPostings(ctx context.Context, events []posting.Event) error
}

// IndexReader provides the read operations the ranking engine needs.
type IndexReader interface {
	TotalDocumentCount(ctx context.Context) (int, error)
	AverageDocumentLength(ctx context.Context) (float64, error)
	DocumentLength(ctx context.Context, docID int) (int, error)
	DocumentContent(ctx context.Context, docID int) (string, error)
	// PostingsForTerms fetches posting rows for all terms in one call.
	// Terms with no postings yield no row.
	PostingsForTerms(ctx context.Context, terms []string) ([]TermPostings, error)
}

// ShardKeys returns the shard table suffixes for an n-shard document source.
// With the default 16 shards the keys are the hex digits 0-9a-f, matching the
// pages0..pagesf table layout.
func ShardKeys(n int) []string {
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, fmt.Sprintf("%x", i))
	}
	return keys
}
