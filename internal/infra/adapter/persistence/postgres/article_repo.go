package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// ArticleRepo is the Postgres-backed repository.ArticleRepository.
type ArticleRepo struct{ db *sql.DB }

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

func scanArticle(row interface{ Scan(...any) error }) (*entity.Article, error) {
	var a entity.Article
	var date sql.NullTime
	var lean sql.NullString
	err := row.Scan(&a.ID, &a.Link, &a.Title, &a.Content, &a.Summary, &date,
		&a.Source, &lean, &a.Origin, &a.Author, &a.Section, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if date.Valid {
		t := date.Time
		a.Date = &t
	}
	a.Lean = entity.Lean(lean.String)
	return &a, nil
}

const articleColumns = `id, link, title, content, summary, date, source, lean, origin, author, section, created_at, updated_at`

// Upsert implements the C3 merge policy described on repository.ArticleRepository.
func (repo *ArticleRepo) Upsert(ctx context.Context, a *entity.Article) (*entity.Article, bool, error) {
	if !a.HasLink() {
		return nil, false, entity.NewError("ArticleRepo.Upsert", entity.KindInvalidInput, fmt.Errorf("article has no link"))
	}

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("Upsert: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanArticle(tx.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE link = $1 FOR UPDATE`, a.Link))
	now := time.Now()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		a.CreatedAt = now
		a.UpdatedAt = now
		err = tx.QueryRowContext(ctx, `
INSERT INTO articles (link, title, content, summary, date, source, lean, origin, author, section, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id`,
			a.Link, a.Title, a.Content, a.Summary, a.Date, a.Source, string(a.Lean), a.Origin, a.Author, a.Section, a.CreatedAt, a.UpdatedAt,
		).Scan(&a.ID)
		if err != nil {
			return nil, false, fmt.Errorf("Upsert: insert: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("Upsert: commit: %w", err)
		}
		return a, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("Upsert: lookup: %w", err)
	}

	merged := mergeArticle(existing, a)
	merged.UpdatedAt = now
	_, err = tx.ExecContext(ctx, `
UPDATE articles SET title=$1, content=$2, summary=$3, date=$4, source=$5, lean=$6, origin=$7, author=$8, section=$9, updated_at=$10
WHERE id=$11`,
		merged.Title, merged.Content, merged.Summary, merged.Date, merged.Source, string(merged.Lean),
		merged.Origin, merged.Author, merged.Section, merged.UpdatedAt, merged.ID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("Upsert: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("Upsert: commit: %w", err)
	}
	return merged, false, nil
}

// mergeArticle applies the merge policy: title replaced, summary replaced
// only when incoming is non-empty, content replaced only when strictly
// longer, date preserved when incoming is nil, source/lean replaced.
func mergeArticle(existing, incoming *entity.Article) *entity.Article {
	merged := *existing
	merged.Title = incoming.Title
	if incoming.Summary != "" {
		merged.Summary = incoming.Summary
	}
	if len(incoming.Content) > len(existing.Content) {
		merged.Content = incoming.Content
	}
	if incoming.Date != nil {
		merged.Date = incoming.Date
	}
	merged.Source = incoming.Source
	merged.Lean = incoming.Lean
	merged.Origin = incoming.Origin
	merged.Author = incoming.Author
	merged.Section = incoming.Section
	return &merged
}

func (repo *ArticleRepo) FindByLink(ctx context.Context, link string) (*entity.Article, error) {
	a, err := scanArticle(repo.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE link = $1`, link))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindByLink: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) FindByLinkAny(ctx context.Context, normalized, raw string) (*entity.Article, error) {
	a, err := scanArticle(repo.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE link = $1 OR link = $2 ORDER BY (link = $1) DESC LIMIT 1`,
		normalized, raw))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FindByLinkAny: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}
	rows, err := repo.db.QueryContext(ctx, `SELECT link FROM articles WHERE link = ANY($1)`, urls)
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: scan: %w", err)
		}
		result[link] = true
	}
	return result, rows.Err()
}

func (repo *ArticleRepo) ListMissingSummary(ctx context.Context, limit int, force bool) ([]*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE summary = '' ORDER BY created_at ASC LIMIT $1`
	if force {
		query = `SELECT ` + articleColumns + ` FROM articles ORDER BY created_at ASC LIMIT $1`
	}
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListMissingSummary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListMissingSummary: scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) UpdateSummary(ctx context.Context, articleID int64, summary string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE articles SET summary=$1, updated_at=$2 WHERE id=$3`, summary, time.Now(), articleID)
	if err != nil {
		return fmt.Errorf("UpdateSummary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *ArticleRepo) ListForIndexing(ctx context.Context) ([]*entity.Article, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE link <> '' ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListForIndexing: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 1000)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListForIndexing: scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (repo *ArticleRepo) ListRecent(ctx context.Context, lookback time.Duration, limit int) ([]*entity.Article, error) {
	since := time.Now().Add(-lookback)
	rows, err := repo.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE date >= $1 ORDER BY date DESC LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("ListRecent: scan: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
