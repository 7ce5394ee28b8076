// Package cache implements the recommendation cache (C9): a TTL/SWR
// read-through layer in front of the recommendation engine, plus a batch
// precompute job.
package cache

import (
	"context"
	"log/slog"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/urlnorm"
	"catchup-feed/internal/usecase/recommend"
)

// DefaultTTL is the single tunable cache staleness window (spec §4.8).
const DefaultTTL = 6 * time.Hour

// Service implements the C9 read policy and precompute batch.
type Service struct {
	Repo       repository.CacheRepository
	Recommend  *recommend.Service
	Normalizer *urlnorm.Normalizer
	TTL        time.Duration
}

// New returns a Service with TTL defaulted if zero.
func New(repo repository.CacheRepository, rec *recommend.Service, normalizer *urlnorm.Normalizer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{Repo: repo, Recommend: rec, Normalizer: normalizer, TTL: ttl}
}

// Get implements spec §4.8's read policy:
//   - miss: synchronously compute, upsert, return.
//   - hit, fresh: return payload.
//   - hit, stale, allowStale=true: return stale payload, schedule background refresh.
//   - hit, stale, allowStale=false: synchronously recompute, upsert, return fresh.
func (s *Service) Get(ctx context.Context, clicked string, p recommend.Params, allowStale bool) (*entity.RecommendationResult, error) {
	normalized := s.Normalizer.Normalize(clicked)

	entry, err := s.Repo.Find(ctx, clicked, normalized, p.HoursWindow, p.TopK, p.StanceThreshold)
	if err != nil {
		// Storage errors during read fall through to direct compute
		// (spec §7); a genuine not-found also falls through here.
		return s.computeAndStore(ctx, clicked, normalized, p)
	}

	if time.Since(entry.UpdatedAt) < s.TTL {
		return &entry.Recommendations, nil
	}

	if allowStale {
		go s.refreshInBackground(clicked, normalized, p)
		return &entry.Recommendations, nil
	}

	return s.computeAndStore(ctx, clicked, normalized, p)
}

// GetCacheOnly returns the cached payload regardless of staleness, or
// ok=false if absent, matching spec §4.8's cache-only read.
func (s *Service) GetCacheOnly(ctx context.Context, clicked string, p recommend.Params) (*entity.RecommendationResult, bool) {
	normalized := s.Normalizer.Normalize(clicked)
	entry, err := s.Repo.Find(ctx, clicked, normalized, p.HoursWindow, p.TopK, p.StanceThreshold)
	if err != nil {
		return nil, false
	}
	return &entry.Recommendations, true
}

func (s *Service) computeAndStore(ctx context.Context, clicked, normalized string, p recommend.Params) (*entity.RecommendationResult, error) {
	result, err := s.Recommend.Recommend(ctx, clicked, p)
	if err != nil {
		return nil, err
	}
	s.upsert(ctx, clicked, normalized, p, result)
	return result, nil
}

func (s *Service) refreshInBackground(clicked, normalized string, p recommend.Params) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := s.Recommend.Recommend(ctx, clicked, p)
	if err != nil {
		slog.Warn("cache: background refresh failed", slog.String("clicked", clicked), slog.String("error", err.Error()))
		return
	}
	s.upsert(ctx, clicked, normalized, p, result)
}

func (s *Service) upsert(ctx context.Context, clicked, normalized string, p recommend.Params, result *entity.RecommendationResult) {
	entry := &entity.RecommendationCacheEntry{
		CacheKey: entity.CacheKey{
			BaseLink:        clicked,
			HoursWindow:     p.HoursWindow,
			TopK:            p.TopK,
			StanceThreshold: p.StanceThreshold,
		},
		NormalizedLink:  normalized,
		Recommendations: *result,
		UpdatedAt:       time.Now(),
	}
	if err := s.Repo.Upsert(ctx, entry); err != nil {
		// Storage errors during write are logged and swallowed: the cache
		// is a performance optimization (spec §7).
		slog.Warn("cache: upsert failed", slog.String("clicked", clicked), slog.String("error", err.Error()))
	}
}

// PrecomputeResult reports the outcome of Precompute.
type PrecomputeResult struct {
	Scanned int
	Cached  int
}

// Precompute implements precompute_recent from spec §4.8: select the most
// recent maxItems links within lookbackHours, recommend each (continuing
// past individual failures), and upsert each result.
func (s *Service) Precompute(ctx context.Context, articles repository.ArticleRepository, p recommend.Params, lookbackHours int, maxItems int) (*PrecomputeResult, error) {
	recent, err := articles.ListRecent(ctx, time.Duration(lookbackHours)*time.Hour, maxItems)
	if err != nil {
		return nil, entity.NewError("cache.Precompute", entity.KindUpstreamUnavailable, err)
	}

	result := &PrecomputeResult{Scanned: len(recent)}
	for _, a := range recent {
		if _, err := s.computeAndStore(ctx, a.Link, s.Normalizer.Normalize(a.Link), p); err != nil {
			slog.Warn("cache: precompute failed for article", slog.Int64("article_id", a.ID), slog.String("error", err.Error()))
			continue
		}
		result.Cached++
	}
	return result, nil
}
