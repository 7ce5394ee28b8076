package summarizer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// AdvisoryLockKey is the process-wide Postgres advisory lock key
// serializing summarizer batch runs, matching
// original_source/ai/app/api/summary.py's ADVISORY_LOCK_KEY exactly.
const AdvisoryLockKey = 777001

// BatchResult reports the outcome of UpdateMissing.
type BatchResult struct {
	Skipped   bool
	Reason    string
	Processed int
	Failed    int
}

// Batch runs the C4 batch summarization job: acquire the process-wide
// advisory lock, summarize up to limit rows missing a summary (or all, if
// force), release the lock on every exit path.
type Batch struct {
	DB       *sql.DB
	Articles repository.ArticleRepository
	Service  *Service
}

// UpdateMissing implements update_missing(limit, force) from spec §4.3.
// If the lock is already held by another process, returns
// {Skipped:true, Reason:"locked"} and a *entity.KindedError with
// KindConflict, matching spec §7's propagation policy.
func (b *Batch) UpdateMissing(ctx context.Context, limit int, force bool) (*BatchResult, error) {
	acquired, err := tryAdvisoryLock(ctx, b.DB)
	if err != nil {
		return nil, entity.NewError("summarizer.UpdateMissing", entity.KindUpstreamUnavailable, err)
	}
	if !acquired {
		return &BatchResult{Skipped: true, Reason: "locked"},
			entity.NewError("summarizer.UpdateMissing", entity.KindConflict, fmt.Errorf("advisory lock %d held", AdvisoryLockKey))
	}
	defer releaseAdvisoryLock(context.Background(), b.DB)

	articles, err := b.Articles.ListMissingSummary(ctx, limit, force)
	if err != nil {
		return nil, entity.NewError("summarizer.UpdateMissing", entity.KindUpstreamUnavailable, err)
	}

	result := &BatchResult{}
	for _, a := range articles {
		summary := b.Service.Summarize(ctx, a.Content, 3, nil)
		if summary == "" {
			result.Failed++
			slog.Warn("summarizer: empty summary, skipping", slog.Int64("article_id", a.ID))
			continue
		}
		if err := b.Articles.UpdateSummary(ctx, a.ID, summary); err != nil {
			result.Failed++
			slog.Error("summarizer: failed to persist summary", slog.Int64("article_id", a.ID), slog.String("error", err.Error()))
			continue
		}
		result.Processed++
	}
	return result, nil
}

func tryAdvisoryLock(ctx context.Context, db *sql.DB) (bool, error) {
	var acquired bool
	err := db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", AdvisoryLockKey).Scan(&acquired)
	if err != nil {
		return false, err
	}
	return acquired, nil
}

func releaseAdvisoryLock(ctx context.Context, db *sql.DB) {
	if _, err := db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", AdvisoryLockKey); err != nil {
		slog.Error("summarizer: failed to release advisory lock", slog.String("error", err.Error()))
	}
}
