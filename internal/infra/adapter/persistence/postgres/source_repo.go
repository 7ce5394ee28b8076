package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// SourceRepo is the Postgres-backed repository.SourceRepository.
type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func scanSource(rows interface{ Scan(...any) error }) (*entity.Source, error) {
	var s entity.Source
	var lastCrawled sql.NullTime
	var lean string
	if err := rows.Scan(&s.ID, &s.Name, &s.FeedURL, &lean, &lastCrawled, &s.Active); err != nil {
		return nil, err
	}
	s.Lean = entity.Lean(lean)
	if lastCrawled.Valid {
		t := lastCrawled.Time
		s.LastCrawledAt = &t
	}
	return &s, nil
}

const sourceColumns = `id, name, feed_url, lean, last_crawled_at, active`

func (repo *SourceRepo) List(ctx context.Context) ([]*entity.Source, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT `+sourceColumns+` FROM sources ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 32)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.Source, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE active = TRUE ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 32)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: scan: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Create(ctx context.Context, source *entity.Source) error {
	if err := source.Validate(); err != nil {
		return entity.NewError("SourceRepo.Create", entity.KindInvalidInput, err)
	}
	return repo.db.QueryRowContext(ctx, `
INSERT INTO sources (name, feed_url, lean, last_crawled_at, active)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (feed_url) DO UPDATE SET name = EXCLUDED.name, lean = EXCLUDED.lean
RETURNING id`,
		source.Name, source.FeedURL, string(source.Lean), source.LastCrawledAt, source.Active,
	).Scan(&source.ID)
}

func (repo *SourceRepo) TouchCrawledAt(ctx context.Context, id int64, t time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE sources SET last_crawled_at = $1 WHERE id = $2`, t, id)
	if err != nil {
		return fmt.Errorf("TouchCrawledAt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
