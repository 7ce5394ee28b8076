package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// CacheRepo is the Postgres-backed repository.CacheRepository (C9 storage).
type CacheRepo struct{ db *sql.DB }

func NewCacheRepo(db *sql.DB) repository.CacheRepository {
	return &CacheRepo{db: db}
}

// Find implements the read policy's lookup: base_link = clicked OR
// normalized_link = normalized, preferring the newest updated_at, scoped
// to the exact (hoursWindow, topK, stanceThreshold) key.
func (r *CacheRepo) Find(ctx context.Context, clicked, normalized string, hoursWindow, topK int, stanceThreshold float64) (*entity.RecommendationCacheEntry, error) {
	var payload []byte
	var e entity.RecommendationCacheEntry
	err := r.db.QueryRowContext(ctx, `
SELECT base_link, normalized_link, hours_window, top_k, stance_threshold, payload, updated_at
FROM recommendation_cache
WHERE (base_link = $1 OR normalized_link = $2)
  AND hours_window = $3 AND top_k = $4 AND stance_threshold = $5
ORDER BY updated_at DESC
LIMIT 1`,
		clicked, normalized, hoursWindow, topK, stanceThreshold,
	).Scan(&e.BaseLink, &e.NormalizedLink, &e.HoursWindow, &e.TopK, &e.StanceThreshold, &payload, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}
	if err := json.Unmarshal(payload, &e.Recommendations); err != nil {
		return nil, entity.NewError("CacheRepo.Find", entity.KindCorrupted, err)
	}
	return &e, nil
}

// Upsert inserts or replaces the row for e.CacheKey.
func (r *CacheRepo) Upsert(ctx context.Context, e *entity.RecommendationCacheEntry) error {
	payload, err := json.Marshal(e.Recommendations)
	if err != nil {
		return fmt.Errorf("Upsert: marshal payload: %w", err)
	}
	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO recommendation_cache (base_link, normalized_link, hours_window, top_k, stance_threshold, payload, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (base_link, hours_window, top_k, stance_threshold) DO UPDATE SET
    normalized_link = EXCLUDED.normalized_link,
    payload         = EXCLUDED.payload,
    updated_at      = EXCLUDED.updated_at`,
		e.BaseLink, e.NormalizedLink, e.HoursWindow, e.TopK, e.StanceThreshold, payload, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}
