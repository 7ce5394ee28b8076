// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Article, Lean, VectorPoint and
// RecommendationCacheEntry, along with their validation rules and domain-specific errors.
package entity

import "time"

// Article represents a news article entity in the system.
// Content is the full extracted text; Summary is derived by the summarizer.
// Date may be absent when the feed/page did not carry a reliable timestamp.
type Article struct {
	ID          int64
	Link        string
	Title       string
	Content     string
	Summary     string
	Date        *time.Time
	Source      string
	Lean        Lean
	Origin      string
	Author      string
	Section     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasLink reports whether the article carries a non-empty canonical link.
// Articles without a link are never persisted.
func (a *Article) HasLink() bool {
	return a.Link != ""
}
