package summarizer

import "context"

// charLimitSummarizer is the shape shared by internal/infra/summarizer's
// Claude and OpenAI adapters.
type charLimitSummarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// backendAdapter wraps a charLimitSummarizer (Claude or OpenAI) as an
// AbstractiveBackend. maxSentences is advisory only: the caller-side
// length check in Service.Summarize is what ultimately decides whether
// the abstractive output is accepted.
type backendAdapter struct {
	inner charLimitSummarizer
}

// NewAbstractiveBackend adapts a Claude/OpenAI client (from
// internal/infra/summarizer) to the AbstractiveBackend interface.
func NewAbstractiveBackend(inner charLimitSummarizer) AbstractiveBackend {
	return &backendAdapter{inner: inner}
}

func (a *backendAdapter) Summarize(ctx context.Context, text string, _ int) (string, error) {
	return a.inner.Summarize(ctx, text)
}

// NoopBackend is used when no abstractive model is configured; it always
// errors so the caller falls through to the extractive/lead chain.
type NoopBackend struct{}

func (NoopBackend) Summarize(context.Context, string, int) (string, error) {
	return "", errAbstractiveDisabled
}

var errAbstractiveDisabled = noopError("abstractive summarizer disabled")

type noopError string

func (e noopError) Error() string { return string(e) }
