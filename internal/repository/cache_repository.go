package repository

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// CacheRepository is the recommendation cache store (C9), keyed by
// entity.CacheKey.
type CacheRepository interface {
	// Find returns the entry whose base_link equals clicked or whose
	// normalized_link equals normalized, preferring the newest updated_at.
	// Returns entity.ErrNotFound if no row matches either form for the
	// given (hoursWindow, topK, stanceThreshold).
	Find(ctx context.Context, clicked, normalized string, hoursWindow, topK int, stanceThreshold float64) (*entity.RecommendationCacheEntry, error)

	// Upsert inserts or replaces the row for e.CacheKey.
	Upsert(ctx context.Context, e *entity.RecommendationCacheEntry) error
}

// VectorStore is the vector index collection (C6).
type VectorStore interface {
	// EnsureDimension creates the collection at dim if it does not exist,
	// or recreates it if its current dimension differs from dim.
	EnsureDimension(ctx context.Context, dim int) error

	// UpsertBatch writes points in batches of approximately batchSize,
	// using up to maxConcurrency concurrent batches. A single batch
	// failure fails the whole call.
	UpsertBatch(ctx context.Context, points []entity.VectorPoint, batchSize, maxConcurrency int) error

	// Search issues a similarity query. When opposing is non-empty, a
	// SHOULD-match filter on those lean values is applied in addition to
	// the optional time-window filter; callers fall back to a
	// filter-free-of-lean search themselves when Search returns no hits
	// under an opposing filter (per spec §4.5 step 4).
	Search(ctx context.Context, query []float32, fromTS, toTS *int64, opposing []entity.Lean, topK int) ([]entity.VectorHit, error)

	// Dimension returns the collection's current vector dimension, or 0 if
	// it has never been created.
	Dimension(ctx context.Context) (int, error)
}
