package ingest

import (
	"context"

	"catchup-feed/internal/infra/fetcher"
	"catchup-feed/internal/usecase/fetch"
)

// RSSFeedFetcher adapts the teacher's RSS reader (internal/infra/scraper,
// typed against internal/usecase/fetch.FeedItem) to this package's
// FeedFetcher.
type RSSFeedFetcher struct {
	Inner interface {
		Fetch(ctx context.Context, feedURL string) ([]fetch.FeedItem, error)
	}
}

func (r RSSFeedFetcher) Fetch(ctx context.Context, feedURL string) ([]FeedItem, error) {
	items, err := r.Inner.Fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	out := make([]FeedItem, 0, len(items))
	for _, it := range items {
		out = append(out, FeedItem{
			Title:       it.Title,
			Link:        it.URL,
			Content:     it.Content,
			PublishedAt: it.PublishedAt,
		})
	}
	return out, nil
}

// ReadabilityArticleFetcher adapts *fetcher.ReadabilityFetcher to this
// package's ArticleFetcher.
type ReadabilityArticleFetcher struct {
	Inner *fetcher.ReadabilityFetcher
}

func (r ReadabilityArticleFetcher) FetchArticle(ctx context.Context, url string) (Result, error) {
	res, err := r.Inner.FetchArticle(ctx, url)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: res.Text, CanonicalLink: res.CanonicalLink}, nil
}
