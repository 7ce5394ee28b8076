package summarizer

import (
	"context"
	"strings"
)

// AbstractiveBackend produces an abstractive summary of text, or an error
// if no backend is configured or the call fails. Implementations include
// Claude/OpenAI adapters and a Noop that always errors (disabled).
type AbstractiveBackend interface {
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
}

// Service implements the C4 contract: Summarize(text, maxSentences,
// maxChars) -> a short summary strictly shorter than 70% of the cleaned
// input whenever possible, else empty on empty/degenerate input.
type Service struct {
	Abstractive AbstractiveBackend
}

// New returns a Service. abstractive may be a NoopBackend when no
// abstractive model is configured.
func New(abstractive AbstractiveBackend) *Service {
	return &Service{Abstractive: abstractive}
}

const lengthBudget = 0.7 // summary must be ≤ 70% of cleaned input length

// Summarize implements the C4 pipeline: preclean -> sentence split ->
// {abstractive, LexRank extractive, lead} -> optional char cap.
func (s *Service) Summarize(ctx context.Context, text string, maxSentences int, maxChars *int) string {
	cleaned := Preclean(text)
	if cleaned == "" {
		return ""
	}
	if maxSentences <= 0 {
		maxSentences = 3
	}

	budget := int(float64(len(cleaned)) * lengthBudget)

	if s.Abstractive != nil {
		if out, err := s.Abstractive.Summarize(ctx, cleaned, maxSentences); err == nil && out != "" && len(out) <= budget {
			return capLength(out, maxChars)
		}
	}

	sentences := SplitSentences(cleaned)
	if len(sentences) == 0 {
		return ""
	}

	var summary string
	if len(sentences) > maxSentences {
		idx := LexRankTopK(sentences, maxSentences)
		picked := make([]string, len(idx))
		for i, s := range idx {
			picked[i] = sentences[s]
		}
		summary = strings.Join(picked, " ")
	} else {
		summary = leadSummary(sentences, maxSentences)
	}

	if len(summary) > budget && budget > 0 {
		summary = leadSummary(sentences, maxSentences)
	}

	return capLength(summary, maxChars)
}

func leadSummary(sentences []string, maxSentences int) string {
	if maxSentences > len(sentences) {
		maxSentences = len(sentences)
	}
	return strings.Join(sentences[:maxSentences], " ")
}

func capLength(summary string, maxChars *int) string {
	if maxChars == nil || len(summary) <= *maxChars {
		return summary
	}
	// Truncate at a sentence boundary so the cap never splits a sentence.
	truncated := summary[:*maxChars]
	if i := strings.LastIndexAny(truncated, ".!?"); i > 0 {
		return truncated[:i+1]
	}
	return truncated
}
