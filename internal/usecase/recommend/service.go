// Package recommend implements the opposing-viewpoint recommendation
// engine (C8): composing the URL normalizer, lean taxonomy, vector index,
// and NLI stance scorer into the nine-stage algorithm from spec §4.7.
package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/lean"
	"catchup-feed/internal/nli"
	"catchup-feed/internal/repository"
	"catchup-feed/internal/summarizer"
	"catchup-feed/internal/urlnorm"
	"catchup-feed/internal/vectorindex"
)

// Params are the caller-tunable knobs bounded per spec §6.
type Params struct {
	HoursWindow     int
	TopK            int
	StanceThreshold float64
}

// DefaultParams matches spec §6's defaults.
func DefaultParams() Params {
	return Params{HoursWindow: 48, TopK: 8, StanceThreshold: 0.125}
}

// Bounds and clamps per spec §6.
const (
	minHoursWindow = 6
	maxHoursWindow = 168
	minTopK        = 1
	maxTopK        = 20
	overFetchTopK  = 80
	hypothesisCap  = 600
)

func (p Params) validate() error {
	if p.HoursWindow < minHoursWindow || p.HoursWindow > maxHoursWindow {
		return entity.NewError("recommend.Params", entity.KindInvalidInput, nil)
	}
	if p.TopK < minTopK || p.TopK > maxTopK {
		return entity.NewError("recommend.Params", entity.KindInvalidInput, nil)
	}
	if p.StanceThreshold < 0 || p.StanceThreshold > 1 {
		return entity.NewError("recommend.Params", entity.KindInvalidInput, nil)
	}
	return nil
}

// VectorizerProvider returns the currently loaded TF-IDF vectorizer,
// hot-swapped by C6 reindex runs. Implementations must tolerate a new
// vocabulary appearing between requests.
type VectorizerProvider interface {
	Current() (*vectorindex.Vectorizer, error)
}

// Service implements the C8 recommend contract.
type Service struct {
	Articles   repository.ArticleRepository
	Store      repository.VectorStore
	Vectorizer VectorizerProvider
	Lean       *lean.Table
	NLI        nli.Scorer
	Summarizer *summarizer.Service
	Normalizer *urlnorm.Normalizer
}

// NotFoundResult is returned (as part of error, via entity.KindNotFound)
// when the base article cannot be located, matching spec §4.7 stage 1's
// {error: "not found", normalized} shape.
type NotFoundResult struct {
	Normalized string
}

// Recommend implements the nine-stage algorithm from spec §4.7.
func (s *Service) Recommend(ctx context.Context, clickedLink string, p Params) (*entity.RecommendationResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	requestID := requestIDFrom(ctx)

	// Stage 1: base lookup.
	normalized := s.Normalizer.Normalize(clickedLink)
	base, err := s.Articles.FindByLinkAny(ctx, normalized, clickedLink)
	if err != nil {
		slog.Warn("recommend: base article not found",
			slog.String("request_id", requestID), slog.String("clicked", clickedLink))
		return nil, entity.NewError("recommend.Recommend", entity.KindNotFound, err)
	}

	// Stage 2: lean inference.
	baseLean := s.Lean.DeriveLean(base.Lean, base.Source, base.Link)

	// Stage 3: query construction.
	vec, err := s.Vectorizer.Current()
	if err != nil {
		return nil, entity.NewError("recommend.Recommend", entity.KindCorrupted, err)
	}
	queryBody := base.Summary
	if queryBody == "" {
		queryBody = base.Content
	}
	queryDoc := vectorindex.BuildDocument(base.Title, queryBody)
	queryVec := vec.Transform(queryDoc)

	premise := base.Summary
	if premise == "" {
		premise = base.Title
	}
	premise = truncateRunes(premise, hypothesisCap)

	// Stage 4: retrieval.
	var fromTS, toTS *int64
	if base.Date != nil {
		center := base.Date.UTC().Unix()
		window := int64(p.HoursWindow) * 3600
		from, to := center-window, center+window
		fromTS, toTS = &from, &to
	}
	opposing := entity.OpposingValues(baseLean)
	hits, err := s.Store.Search(ctx, queryVec, fromTS, toTS, opposing, overFetchTopK)
	if err != nil {
		return nil, entity.NewError("recommend.Recommend", entity.KindUpstreamUnavailable, err)
	}
	if len(opposing) > 0 && len(hits) == 0 {
		// Fallback: rerun with only the time filter (spec §4.5 step 4).
		hits, err = s.Store.Search(ctx, queryVec, fromTS, toTS, nil, overFetchTopK)
		if err != nil {
			return nil, entity.NewError("recommend.Recommend", entity.KindUpstreamUnavailable, err)
		}
	}

	// Stage 5: candidate filter.
	normalizedBase := normalized
	var candidates []entity.VectorHit
	for _, h := range hits {
		hitLean := s.Lean.DeriveLean(h.Lean, h.Source, h.Link)
		if baseLean != entity.LeanUnknown && hitLean == baseLean {
			continue
		}
		if s.Normalizer.Normalize(h.Link) == normalizedBase {
			continue
		}
		candidates = append(candidates, h)
	}

	// Stage 6+7: stance scoring and final score.
	type scored struct {
		hit    entity.VectorHit
		result nli.Result
		score  float64
	}
	scoredItems := make([]scored, 0, len(candidates))
	for _, h := range candidates {
		hypothesisSrc := h.Content
		if hypothesisSrc == "" {
			hypothesisSrc = h.Title
		}
		hypothesis := truncateRunes(s.Summarizer.Summarize(ctx, hypothesisSrc, 3, nil), hypothesisCap)
		if hypothesis == "" {
			hypothesis = truncateRunes(h.Title, hypothesisCap)
		}

		result, err := s.NLI.Classify(ctx, premise, hypothesis)
		if err != nil {
			slog.Warn("recommend: nli call failed, treating stance as 0",
				slog.String("request_id", requestID), slog.String("link", h.Link), slog.String("error", err.Error()))
			result = nli.Result{Label: nli.LabelNeutral, Probs: [3]float64{0, 1, 0}}
		}
		stance := result.Stance()
		stanceNorm := clip((stance+1)/2, 0, 1)
		score := h.Similarity * (0.8 + 0.2*stanceNorm)
		scoredItems = append(scoredItems, scored{hit: h, result: result, score: score})
	}

	// Stage 8: two-tier selection.
	var strong, weak []scored
	for _, it := range scoredItems {
		if absf(it.result.Stance()) >= p.StanceThreshold {
			strong = append(strong, it)
		} else {
			weak = append(weak, it)
		}
	}
	sort.SliceStable(strong, func(i, j int) bool { return strong[i].score > strong[j].score })
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].score > weak[j].score })

	selected := strong
	if len(selected) > p.TopK {
		selected = selected[:p.TopK]
	} else {
		need := p.TopK - len(selected)
		if need > len(weak) {
			need = len(weak)
		}
		selected = append(selected, weak[:need]...)
	}

	// Stage 9: output.
	items := make([]entity.RecommendationItem, 0, len(selected))
	for _, it := range selected {
		items = append(items, entity.RecommendationItem{
			Title:  it.hit.Title,
			Link:   it.hit.Link,
			Source: it.hit.Source,
			Lean:   it.hit.Lean,
			Date:   it.hit.Date,
			Probs:  it.result.Probs,
			Stance: it.result.Stance(),
			Score:  it.score,
		})
	}

	return &entity.RecommendationResult{Clicked: normalized, Recommendations: items}, nil
}

func requestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}

type requestIDKey struct{}

func truncateRunes(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max])
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
