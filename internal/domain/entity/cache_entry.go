package entity

import "time"

// CacheKey is the composite primary key of a RecommendationCacheEntry.
type CacheKey struct {
	BaseLink        string
	HoursWindow     int
	TopK            int
	StanceThreshold float64
}

// RecommendationCacheEntry is a cached recommendation payload. BaseLink is
// stored verbatim as the caller supplied it; NormalizedLink is the
// normalizer's output over BaseLink, kept so lookups can match on either
// form.
type RecommendationCacheEntry struct {
	CacheKey
	NormalizedLink string
	Recommendations RecommendationResult
	UpdatedAt       time.Time
}

// RecommendationResult is the payload produced by the recommendation engine
// (C8) and cached verbatim by C9.
type RecommendationResult struct {
	Clicked         string                   `json:"clicked"`
	Recommendations []RecommendationItem     `json:"recommendations"`
}

// RecommendationItem is a single ranked recommendation.
type RecommendationItem struct {
	Title  string    `json:"title"`
	Link   string    `json:"link"`
	Source string    `json:"source"`
	Lean   Lean      `json:"lean"`
	Date   *time.Time `json:"date,omitempty"`
	Probs  [3]float64 `json:"probs"` // [entailment, neutral, contradiction]
	Stance float64    `json:"stance"`
	Score  float64    `json:"score"`
}
