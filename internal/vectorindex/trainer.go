package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// Trainer orchestrates a full reindex run (C6 training+indexing): read all
// articles, fit a vectorizer, persist it atomically, ensure the
// collection's dimension, and upsert every point in batches.
type Trainer struct {
	Articles       repository.ArticleRepository
	Store          repository.VectorStore
	VectorizerPath string
	BatchSize      int
	MaxConcurrency int
}

// Result summarizes a reindex run.
type Result struct {
	Indexed   int
	Dimension int
	Duration  time.Duration
}

// Reindex performs the full training+indexing pipeline described in spec
// §4.5. Ordering matches §5: the vectorizer artifact is written before the
// collection dimension changes, and the dimension is ensured before any
// upsert.
func (t *Trainer) Reindex(ctx context.Context) (*Result, error) {
	start := time.Now()

	articles, err := t.Articles.ListForIndexing(ctx)
	if err != nil {
		return nil, entity.NewError("vectorindex.Reindex", entity.KindUpstreamUnavailable, err)
	}
	if len(articles) == 0 {
		slog.Info("vectorindex: reindex skipped, no articles")
		return &Result{}, nil
	}

	docs := make([]string, len(articles))
	bodies := make([]string, len(articles))
	for i, a := range articles {
		body := a.Summary
		if body == "" {
			body = a.Content
		}
		bodies[i] = body
		docs[i] = BuildDocument(a.Title, body)
	}

	vec := Fit(docs)
	dim := vec.Dim()
	slog.Info("vectorindex: fitted vectorizer", slog.Int("dim", dim), slog.Int("docs", len(docs)))

	if err := SaveAtomic(t.VectorizerPath, vec); err != nil {
		return nil, fmt.Errorf("vectorindex: reindex: %w", err)
	}

	if err := t.Store.EnsureDimension(ctx, dim); err != nil {
		return nil, entity.NewError("vectorindex.Reindex", entity.KindUpstreamUnavailable, err)
	}

	points := make([]entity.VectorPoint, len(articles))
	for i, a := range articles {
		p := entity.VectorPoint{
			ArticleID: a.ID,
			Vector:    vec.Transform(docs[i]),
			Title:     a.Title,
			Content:   bodies[i],
			Link:      a.Link,
			Source:    a.Source,
			Lean:      a.Lean,
		}
		if a.Date != nil {
			ts := a.Date.UTC().Unix()
			p.DateTS = &ts
			d := *a.Date
			p.Date = &d
		}
		points[i] = p
	}

	if err := t.Store.UpsertBatch(ctx, points, t.BatchSize, t.MaxConcurrency); err != nil {
		return nil, entity.NewError("vectorindex.Reindex", entity.KindUpstreamUnavailable, err)
	}

	return &Result{Indexed: len(points), Dimension: dim, Duration: time.Since(start)}, nil
}
