// Package harness executes batches of test cases against an execution
// target with bounded concurrency, per-case retries, and scoring.
package harness

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/agent-eval/internal/agent"
	"github.com/sells-group/agent-eval/internal/model"
	"github.com/sells-group/agent-eval/internal/tool"
	"github.com/sells-group/agent-eval/pkg/llm"
)

// Outcome is what one successful target execution produced.
type Outcome struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
	LatencyMS        float64
	TrajectorySteps  int
}

// Target runs one attempt of one test case. Implementations must be
// safe for concurrent use; the harness calls Execute from many
// goroutines.
type Target interface {
	Execute(ctx context.Context, tc model.TestCase) (*Outcome, error)
}

// ModelTarget sends each prompt as a single completion request.
type ModelTarget struct {
	Client llm.Client
	Opts   llm.Options
}

func (t ModelTarget) Execute(ctx context.Context, tc model.TestCase) (*Outcome, error) {
	completion, err := t.Client.Complete(ctx, tc.Prompt, t.Opts)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Text:             completion.Text,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		LatencyMS:        completion.LatencyMS,
	}, nil
}

// AgentTarget drives the full reasoning loop for each prompt. A step
// budget exhaustion is a completed (if unsolved) execution, not an
// error: the partial summary becomes the answer and scoring decides
// the verdict.
type AgentTarget struct {
	Client  llm.Client
	Gateway *tool.Gateway
	Opts    agent.Options
}

func (t AgentTarget) Execute(ctx context.Context, tc model.TestCase) (*Outcome, error) {
	start := time.Now()
	res, err := agent.New(t.Client, t.Gateway, t.Opts).Run(ctx, tc.Prompt)
	if err != nil && !errors.Is(err, agent.ErrMaxSteps) {
		return nil, err
	}
	return &Outcome{
		Text:             res.Answer,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		LatencyMS:        float64(time.Since(start)) / float64(time.Millisecond),
		TrajectorySteps:  len(res.Trajectory.Steps),
	}, nil
}
