// Package vectorindex implements the TF-IDF vectorizer trainer and the
// pgvector-backed vector collection (C6).
package vectorindex

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/resilience/circuitbreaker"
)

// DefaultSearchTimeout bounds a single similarity query, grounded on the
// teacher's ArticleEmbeddingRepo.SearchSimilar.
const DefaultSearchTimeout = 5 * time.Second

const collectionTable = "article_vectors"

// PgvectorStore implements repository.VectorStore on top of a single
// fixed-dimension pgvector column. Because pgvector's column dimension is
// declared at CREATE TABLE time (unlike a schemaless vector database),
// "recreate collection at a new dimension" is implemented as DROP+CREATE
// of the whole table rather than an in-place resize.
type PgvectorStore struct {
	db             *sql.DB
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewPgvectorStore returns a PgvectorStore backed by db.
func NewPgvectorStore(db *sql.DB) repository.VectorStore {
	return &PgvectorStore{
		db:             db,
		circuitBreaker: circuitbreaker.New(circuitbreaker.VectorStoreConfig()),
	}
}

// Dimension returns the vector column's current typmod (dimension), or 0
// if the table does not exist.
func (s *PgvectorStore) Dimension(ctx context.Context) (int, error) {
	var dim sql.NullInt32
	err := s.db.QueryRowContext(ctx, `
SELECT atttypmod
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = $1 AND a.attname = 'embedding' AND a.attnum > 0 AND NOT a.attisdropped`,
		collectionTable,
	).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vectorindex: dimension: %w", err)
	}
	if !dim.Valid {
		return 0, nil
	}
	return int(dim.Int32), nil
}

// EnsureDimension creates article_vectors at dim if absent, or recreates
// it (DROP+CREATE) if its current dimension differs from dim, per spec
// §4.5 and §5's ordering guarantee that this happens before any upsert
// using the new dimension.
func (s *PgvectorStore) EnsureDimension(ctx context.Context, dim int) error {
	current, err := s.Dimension(ctx)
	if err != nil {
		return err
	}
	if current == dim {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorindex: ensure dimension: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", collectionTable)); err != nil {
		return fmt.Errorf("vectorindex: ensure dimension: drop: %w", err)
	}
	createSQL := fmt.Sprintf(`
CREATE TABLE %s (
    article_id INTEGER PRIMARY KEY,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL,
    link       TEXT NOT NULL,
    source     TEXT NOT NULL,
    lean       TEXT NOT NULL,
    date_ts    BIGINT,
    date       TIMESTAMPTZ,
    embedding  vector(%d) NOT NULL
)`, collectionTable, dim)
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("vectorindex: ensure dimension: create: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%[1]s_date_ts ON %[1]s(date_ts)", collectionTable)); err != nil {
		return fmt.Errorf("vectorindex: ensure dimension: index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%[1]s_lean ON %[1]s(lean)", collectionTable)); err != nil {
		return fmt.Errorf("vectorindex: ensure dimension: index: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding ON %[1]s USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)", collectionTable)); err != nil {
		return fmt.Errorf("vectorindex: ensure dimension: index: %w", err)
	}
	return tx.Commit()
}

// UpsertBatch writes points in batches of batchSize, running up to
// maxConcurrency batches concurrently. A single batch failure fails the
// whole call (spec §4.5).
func (s *PgvectorStore) UpsertBatch(ctx context.Context, points []entity.VectorPoint, batchSize, maxConcurrency int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]
		g.Go(func() error {
			return s.upsertOne(gctx, batch)
		})
	}
	return g.Wait()
}

func (s *PgvectorStore) upsertOne(ctx context.Context, batch []entity.VectorPoint) error {
	_, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s (article_id, title, content, link, source, lean, date_ts, date, embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (article_id) DO UPDATE SET
    title = EXCLUDED.title,
    content = EXCLUDED.content,
    link = EXCLUDED.link,
    source = EXCLUDED.source,
    lean = EXCLUDED.lean,
    date_ts = EXCLUDED.date_ts,
    date = EXCLUDED.date,
    embedding = EXCLUDED.embedding`, collectionTable))
		if err != nil {
			return nil, err
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range batch {
			var dateTS sql.NullInt64
			if p.DateTS != nil {
				dateTS = sql.NullInt64{Int64: *p.DateTS, Valid: true}
			}
			var date sql.NullTime
			if p.Date != nil {
				date = sql.NullTime{Time: *p.Date, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, p.ArticleID, p.Title, p.Content, p.Link,
				p.Source, string(p.Lean), dateTS, date, pgvector.NewVector(p.Vector)); err != nil {
				return nil, err
			}
		}
		return nil, tx.Commit()
	})
	return err
}

// Search issues a cosine-similarity query with optional time-window and
// opposing-lean filters, matching spec §4.5's query contract.
func (s *PgvectorStore) Search(ctx context.Context, query []float32, fromTS, toTS *int64, opposing []entity.Lean, topK int) ([]entity.VectorHit, error) {
	searchCtx, cancel := context.WithTimeout(ctx, DefaultSearchTimeout)
	defer cancel()

	if topK <= 0 {
		topK = 10
	}

	args := []interface{}{pgvector.NewVector(query)}
	where := "TRUE"
	if fromTS != nil && toTS != nil {
		args = append(args, *fromTS, *toTS)
		where += fmt.Sprintf(" AND date_ts BETWEEN $%d AND $%d", len(args)-1, len(args))
	}
	if len(opposing) > 0 {
		placeholders := make([]string, len(opposing))
		for i, l := range opposing {
			args = append(args, string(l))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += fmt.Sprintf(" AND lean IN (%s)", joinPlaceholders(placeholders))
	}
	args = append(args, topK)

	q := fmt.Sprintf(`
SELECT article_id, title, content, link, source, lean, date_ts, date,
       1 - (embedding <=> $1) AS similarity
FROM %s
WHERE %s
ORDER BY embedding <=> $1
LIMIT $%d`, collectionTable, where, len(args))

	result, err := s.circuitBreaker.Execute(func() (interface{}, error) {
		rows, err := s.db.QueryContext(searchCtx, q, args...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		var hits []entity.VectorHit
		for rows.Next() {
			var h entity.VectorHit
			var leanStr string
			var dateTS sql.NullInt64
			var date sql.NullTime
			if err := rows.Scan(&h.ArticleID, &h.Title, &h.Content, &h.Link, &h.Source,
				&leanStr, &dateTS, &date, &h.Similarity); err != nil {
				return nil, err
			}
			h.Lean = entity.Lean(leanStr)
			if dateTS.Valid {
				ts := dateTS.Int64
				h.DateTS = &ts
			}
			if date.Valid {
				t := date.Time
				h.Date = &t
			}
			hits = append(hits, h)
		}
		return hits, rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}
	return result.([]entity.VectorHit), nil
}

func joinPlaceholders(ph []string) string {
	out := ph[0]
	for _, p := range ph[1:] {
		out += "," + p
	}
	return out
}
