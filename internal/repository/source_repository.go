package repository

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
)

// SourceRepository is the configured-feed-source table (one row per
// RSS source in config/sources.yaml, seeded into Postgres at migration
// time).
type SourceRepository interface {
	List(ctx context.Context) ([]*entity.Source, error)
	ListActive(ctx context.Context) ([]*entity.Source, error)
	Create(ctx context.Context, source *entity.Source) error
	TouchCrawledAt(ctx context.Context, id int64, t time.Time) error
}
