package nli

import "context"

// Noop always returns the neutral result, used when no NLI service
// endpoint is configured, matching the teacher's noop provider pattern
// (internal/infra/grpc/noop_ai_provider.go, internal/infra/notifier/noop.go).
type Noop struct{}

func (Noop) Classify(context.Context, string, string) (Result, error) {
	return neutralResult, nil
}
