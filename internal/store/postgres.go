package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/Allegre7tto/SearchEngineDemo/internal/posting"
	apperrors "github.com/Allegre7tto/SearchEngineDemo/pkg/errors"
	"github.com/Allegre7tto/SearchEngineDemo/pkg/postgres"
	"github.com/lib/pq"
)

// shardKeyPattern guards against interpolating anything but a shard suffix
// into a table name. Shard tables cannot be bound as query parameters.
var shardKeyPattern = regexp.MustCompile(`^[0-9a-f]$`)

// Postgres implements DocumentSource, IndexWriter, and IndexReader against
// the pages0..pagesf shard tables, the pages_all view, and the dict table.
type Postgres struct {
	client *postgres.Client
	logger *slog.Logger
}

// NewPostgres wraps a connected client.
func NewPostgres(client *postgres.Client) *Postgres {
	return &Postgres{
		client: client,
		logger: slog.Default().With("component", "store"),
	}
}

func shardTable(shardKey string) (string, error) {
	if !shardKeyPattern.MatchString(shardKey) {
		return "", apperrors.Newf(apperrors.ErrInvalidInput, 400, "invalid shard key %q", shardKey)
	}
	return "pages" + shardKey, nil
}

// ListShard returns the documents of one shard that have not yet been claimed
// for segmentation.
func (p *Postgres) ListShard(ctx context.Context, shardKey string) ([]Document, error) {
	table, err := shardTable(shardKey)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, content FROM %s WHERE NOT dict_done`, table)
	rows, err := p.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing shard %s: %w", shardKey, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Content); err != nil {
			return nil, fmt.Errorf("scanning shard %s row: %w", shardKey, err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shard %s rows: %w", shardKey, err)
	}
	return docs, nil
}

// MarkShardProcessed flags every document of the shard as claimed. Repeating
// the update is a no-op.
func (p *Postgres) MarkShardProcessed(ctx context.Context, shardKey string) error {
	table, err := shardTable(shardKey)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET dict_done = TRUE WHERE NOT dict_done`, table)
	if _, err := p.client.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("marking shard %s processed: %w", shardKey, err)
	}
	return nil
}

// AppendPostings writes a posting batch in one transaction. Events are
// grouped by term and each term's entries are concatenated onto its existing
// posting list, so prior postings survive every append.
func (p *Postgres) AppendPostings(ctx context.Context, events []posting.Event) error {
	if len(events) == 0 {
		return nil
	}
	byTerm := make(map[string][]posting.Event)
	for _, ev := range events {
		byTerm[ev.Term] = append(byTerm[ev.Term], ev)
	}

	return p.client.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO dict (name, positions) VALUES ($1, $2)
			ON CONFLICT (name)
			DO UPDATE SET positions = dict.positions || ',' || EXCLUDED.positions`)
		if err != nil {
			return fmt.Errorf("preparing dict upsert: %w", err)
		}
		defer stmt.Close()

		for term, termEvents := range byTerm {
			if _, err := stmt.ExecContext(ctx, term, posting.EncodeEntries(termEvents)); err != nil {
				return fmt.Errorf("appending postings for term %q: %w", term, err)
			}
		}
		return nil
	})
}

// TotalDocumentCount returns the corpus size across all shard tables.
func (p *Postgres) TotalDocumentCount(ctx context.Context) (int, error) {
	var count int
	err := p.client.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages_all`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// AverageDocumentLength returns the mean token count across the corpus, or 0
// for an empty corpus.
func (p *Postgres) AverageDocumentLength(ctx context.Context) (float64, error) {
	var avg float64
	err := p.client.DB.QueryRowContext(ctx, `SELECT COALESCE(AVG(length), 0) FROM pages_all`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("averaging document length: %w", err)
	}
	return avg, nil
}

// DocumentLength returns the stored token count of one document.
func (p *Postgres) DocumentLength(ctx context.Context, docID int) (int, error) {
	var length int
	err := p.client.DB.QueryRowContext(ctx, `SELECT length FROM pages_all WHERE id = $1`, docID).Scan(&length)
	if err == sql.ErrNoRows {
		return 0, apperrors.Newf(apperrors.ErrDocumentNotFound, 404, "document %d", docID)
	}
	if err != nil {
		return 0, fmt.Errorf("fetching length of document %d: %w", docID, err)
	}
	return length, nil
}

// DocumentContent returns the display text of one document.
func (p *Postgres) DocumentContent(ctx context.Context, docID int) (string, error) {
	var content string
	err := p.client.DB.QueryRowContext(ctx, `SELECT content FROM pages_all WHERE id = $1`, docID).Scan(&content)
	if err == sql.ErrNoRows {
		return "", apperrors.Newf(apperrors.ErrDocumentNotFound, 404, "document %d", docID)
	}
	if err != nil {
		return "", fmt.Errorf("fetching content of document %d: %w", docID, err)
	}
	return content, nil
}

// PostingsForTerms fetches posting rows for all query terms in one round trip.
func (p *Postgres) PostingsForTerms(ctx context.Context, terms []string) ([]TermPostings, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := p.client.DB.QueryContext(ctx,
		`SELECT name, positions FROM dict WHERE name = ANY($1)`,
		pq.Array(terms),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching postings: %w", err)
	}
	defer rows.Close()

	var result []TermPostings
	for rows.Next() {
		var tp TermPostings
		if err := rows.Scan(&tp.Term, &tp.Positions); err != nil {
			return nil, fmt.Errorf("scanning posting row: %w", err)
		}
		result = append(result, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posting rows: %w", err)
	}
	return result, nil
}

// SetDocumentLength records the derived token count for a document. The
// segmentation workers call this once per document so that length reads and
// the average in pages_all reflect tokenized lengths.
func (p *Postgres) SetDocumentLength(ctx context.Context, shardKey string, docID, length int) error {
	table, err := shardTable(shardKey)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET length = $1 WHERE id = $2`, table)
	if _, err := p.client.DB.ExecContext(ctx, query, length, docID); err != nil {
		return fmt.Errorf("recording length of document %d: %w", docID, err)
	}
	return nil
}
