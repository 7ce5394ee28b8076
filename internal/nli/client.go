// Package nli implements the stance scorer (C7): given a premise and a
// hypothesis, produce {entailment, neutral, contradiction} probabilities
// via an HTTP+JSON call to an external NLI model service.
package nli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// Label is one of the three XNLI-style classes, in the fixed probability
// order [entailment, neutral, contradiction].
type Label string

const (
	LabelEntailment    Label = "entailment"
	LabelNeutral       Label = "neutral"
	LabelContradiction Label = "contradiction"
)

// Result is the classifier's output: a label and a 3-way probability
// vector summing to 1, ordered [entailment, neutral, contradiction].
type Result struct {
	Label Label
	Probs [3]float64
}

// Stance returns P(contradiction) - P(entailment), in [-1, 1].
func (r Result) Stance() float64 {
	return r.Probs[2] - r.Probs[0]
}

// Scorer classifies a (premise, hypothesis) pair.
type Scorer interface {
	Classify(ctx context.Context, premise, hypothesis string) (Result, error)
}

// neutralResult is returned for empty input, matching model.py's
// nli_infer behavior on an empty premise/hypothesis.
var neutralResult = Result{Label: LabelNeutral, Probs: [3]float64{0.33, 0.34, 0.33}}

// request is the JSON body sent to the NLI service. MaxTokens informs the
// service-side pair-truncation described in SPEC_FULL.md, modeled on
// model.py's _safe_pair alternating truncation.
type request struct {
	Premise    string `json:"premise"`
	Hypothesis string `json:"hypothesis"`
	MaxTokens  int    `json:"max_tokens"`
}

type response struct {
	Label Label      `json:"label"`
	Probs [3]float64 `json:"probs"`
}

// HTTPClient is an HTTP+JSON NLI client wrapped in the same
// circuitbreaker/retry pattern the teacher uses for its gRPC AI client.
// See DESIGN.md for why this is HTTP+JSON rather than gRPC.
type HTTPClient struct {
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	maxTokens      int
}

// NewHTTPClient returns an HTTPClient targeting baseURL (expected to expose
// POST /classify).
func NewHTTPClient(baseURL string, timeout time.Duration, maxTokens int) *HTTPClient {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &HTTPClient{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: timeout},
		circuitBreaker: circuitbreaker.New(circuitbreaker.NLIServiceConfig()),
		retryConfig:    retry.AIAPIConfig(),
		maxTokens:      maxTokens,
	}
}

// Classify implements Scorer. On empty premise or hypothesis it returns
// neutralResult without making a call, matching spec §4.6.
func (c *HTTPClient) Classify(ctx context.Context, premise, hypothesis string) (Result, error) {
	if premise == "" || hypothesis == "" {
		return neutralResult, nil
	}

	var result Result
	err := retry.WithBackoff(ctx, c.retryConfig, func() error {
		out, cbErr := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doClassify(ctx, premise, hypothesis)
		})
		if cbErr != nil {
			if errors.Is(cbErr, gobreaker.ErrOpenState) {
				return fmt.Errorf("nli service unavailable: circuit breaker open")
			}
			return cbErr
		}
		result = out.(Result)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("nli: classify: %w", err)
	}
	return result, nil
}

func (c *HTTPClient) doClassify(ctx context.Context, premise, hypothesis string) (Result, error) {
	body, err := json.Marshal(request{Premise: premise, Hypothesis: hypothesis, MaxTokens: c.maxTokens})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "nli service error"}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("nli service returned status %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, err
	}
	return Result{Label: out.Label, Probs: out.Probs}, nil
}
