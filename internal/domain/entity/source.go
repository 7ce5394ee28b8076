package entity

import (
	"fmt"
	"time"
)

// Source represents a configured RSS feed source in the system: a press
// name, its feed URL, its political lean, and crawling status. Every
// source is an RSS source; general-purpose web scraping is out of scope.
type Source struct {
	ID            int64
	Name          string
	FeedURL       string
	Lean          Lean
	LastCrawledAt *time.Time
	Active        bool
}

// Validate checks that the Source carries the minimum fields required to
// be crawled.
func (s *Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source: name is required")
	}
	if s.FeedURL == "" {
		return fmt.Errorf("source: feed_url is required")
	}
	if s.Lean != "" && !s.Lean.Valid() {
		return fmt.Errorf("source %q: invalid lean %q", s.Name, s.Lean)
	}
	return nil
}
