// Package fetch declares the shared feed-parsing types used by the RSS
// reader (internal/infra/scraper) and the full-article fetcher
// (internal/infra/fetcher). The crawl orchestrator that used to live in
// this package has moved to internal/usecase/ingest, which narrows the
// pipeline to RSS-only sources and wires it against the rewritten
// repository interfaces.
package fetch

import (
	"context"
	"time"
)

// FeedFetcher is an interface for fetching RSS/Atom feeds from a URL.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedItem, error)
}

// FeedItem represents a single item from an RSS/Atom feed.
type FeedItem struct {
	Title       string
	URL         string
	Content     string
	PublishedAt time.Time
}
