// Package llm abstracts the language-model completion API consumed by
// the agent loop and the evaluation harness.
package llm

import (
	"context"
)

// Options tunes a single completion call.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature *float64
	System      string
}

// Completion is the result of one model call.
type Completion struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
	LatencyMS        float64
}

// Client is the model collaborator contract. Implementations classify
// failures via resilience.TransientError so callers can distinguish
// retryable conditions (rate limit, timeout, transport) from invalid
// requests.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (*Completion, error)
}
