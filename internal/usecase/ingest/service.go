// Package ingest implements the ingestion orchestrator (C3): per-feed RSS
// polling, canonicalization, full-text extraction, and upsert into the
// article store. Adapted from the teacher's internal/usecase/fetch,
// narrowed to RSS-only sources (general web scraping is out of scope).
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/lean"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/urlnorm"
	"catchup-feed/internal/usecase/notify"
)

// FeedItem is one entry parsed from a source's RSS/Atom feed.
type FeedItem struct {
	Title       string
	Link        string
	Content     string
	PublishedAt time.Time
	Author      string
}

// FeedFetcher parses an RSS/Atom feed into its entries.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedItem, error)
}

// ArticleFetcher fetches one article page and extracts its body text and,
// when present, its canonical link.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) (Result, error)
}

// Result mirrors fetcher.ArticleResult; declared locally so this package
// does not depend on the fetcher implementation's package directly.
type Result struct {
	Text          string
	CanonicalLink string
}

const (
	requestTimeout  = 12 * time.Second
	politenessDelay = 800 * time.Millisecond
)

// SourceResult reports per-source crawl outcome, isolating failures per
// spec §4.2 ("Per-feed errors are isolated").
type SourceResult struct {
	SourceName string
	FeedItems  int
	Inserted   int
	Duplicated int
	Errors     int
	Err        error
}

// Stats aggregates a full crawl_all run.
type Stats struct {
	Sources    map[string]SourceResult
	Inserted   int
	Duplicated int
	Duration   time.Duration
}

// Service implements the C3 orchestrator.
type Service struct {
	Sources        repository.SourceRepository
	Articles       repository.ArticleRepository
	Feeds          FeedFetcher
	Content        ArticleFetcher
	Lean           *lean.Table
	Normalizer     *urlnorm.Normalizer
	Notify         notify.Service // optional; fires on every newly inserted article
	Concurrency int // bounded worker pool for content fetch + upsert, default 3
}

func (s *Service) concurrency() int {
	if s.Concurrency <= 0 {
		return 3
	}
	return s.Concurrency
}

// CrawlAll runs the per-feed loop over every active source, isolating
// failures so one bad feed does not stop others.
func (s *Service) CrawlAll(ctx context.Context) (*Stats, error) {
	start := time.Now()
	srcs, err := s.Sources.ListActive(ctx)
	if err != nil {
		return nil, entity.NewError("ingest.CrawlAll", entity.KindUpstreamUnavailable, err)
	}

	stats := &Stats{Sources: make(map[string]SourceResult, len(srcs))}
	for _, src := range srcs {
		result := s.crawlSource(ctx, src)
		stats.Sources[src.Name] = result
		stats.Inserted += result.Inserted
		stats.Duplicated += result.Duplicated
		if result.Err != nil {
			slog.Warn("ingest: source crawl failed", slog.String("source", src.Name), slog.String("error", result.Err.Error()))
		}
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

func (s *Service) crawlSource(ctx context.Context, src *entity.Source) SourceResult {
	result := SourceResult{SourceName: src.Name}

	items, err := s.Feeds.Fetch(ctx, src.FeedURL)
	if err != nil {
		result.Err = fmt.Errorf("fetch feed: %w", err)
		return result
	}
	result.FeedItems = len(items)
	if len(items) == 0 {
		return result
	}

	urls := make([]string, 0, len(items))
	for _, it := range items {
		urls = append(urls, s.Normalizer.Normalize(it.Link))
	}
	exists, err := s.Articles.ExistsByURLBatch(ctx, urls)
	if err != nil {
		result.Err = fmt.Errorf("batch exists check: %w", err)
		return result
	}

	sourceLean := s.Lean.DeriveLean(src.Lean, src.Name, src.FeedURL)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency())
	var inserted, duplicated, errCount int64

	for _, feedItem := range items {
		item := feedItem
		normalizedLink := s.Normalizer.Normalize(item.Link)
		if exists[normalizedLink] {
			atomic.AddInt64(&duplicated, 1)
			continue
		}

		eg.Go(func() error {
			time.Sleep(politenessDelay)

			reqCtx, cancel := context.WithTimeout(egCtx, requestTimeout)
			defer cancel()

			article := s.buildArticle(reqCtx, src, sourceLean, item, normalizedLink)
			if !article.HasLink() {
				return nil
			}
			saved, created, err := s.Articles.Upsert(egCtx, article)
			if err != nil {
				atomic.AddInt64(&errCount, 1)
				slog.Warn("ingest: upsert failed", slog.String("source", src.Name), slog.String("link", article.Link), slog.String("error", err.Error()))
				return nil
			}
			atomic.AddInt64(&inserted, 1)
			if created && s.Notify != nil {
				_ = s.Notify.NotifyNewArticle(egCtx, saved, src)
			}
			return nil
		})
	}
	_ = eg.Wait()

	if err := s.Sources.TouchCrawledAt(context.WithoutCancel(ctx), src.ID, time.Now()); err != nil {
		slog.Warn("ingest: touch crawled_at failed", slog.String("source", src.Name), slog.String("error", err.Error()))
	}

	result.Inserted = int(inserted)
	result.Duplicated = int(duplicated)
	result.Errors = int(errCount)
	return result
}

// buildArticle fetches origin content, canonicalizes the link per spec
// §4.2 step 3 (rel=canonical > og:url > tracking-stripped RSS link), and
// assembles the article row to upsert.
func (s *Service) buildArticle(ctx context.Context, src *entity.Source, sourceLean entity.Lean, item FeedItem, fallbackLink string) *entity.Article {
	content := item.Content
	canonical := fallbackLink

	if s.Content != nil {
		if fetched, err := s.Content.FetchArticle(ctx, item.Link); err == nil {
			if fetched.Text != "" {
				content = fetched.Text
			}
			if fetched.CanonicalLink != "" {
				canonical = s.Normalizer.Normalize(fetched.CanonicalLink)
			}
		} else {
			slog.Debug("ingest: content fetch failed, using RSS body", slog.String("link", item.Link), slog.String("error", err.Error()))
		}
	}

	var publishedAt *time.Time
	if !item.PublishedAt.IsZero() {
		t := item.PublishedAt
		publishedAt = &t
	}

	return &entity.Article{
		Link:    canonical,
		Title:   item.Title,
		Content: content,
		Date:    publishedAt,
		Source:  src.Name,
		Lean:    sourceLean,
		Origin:  "rss",
		Author:  item.Author,
	}
}
