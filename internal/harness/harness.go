package harness

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/agent-eval/internal/cost"
	"github.com/sells-group/agent-eval/internal/model"
	"github.com/sells-group/agent-eval/internal/resilience"
	"github.com/sells-group/agent-eval/internal/scoring"
)

// Appender receives each finished record exactly once. Implementations
// must be safe for concurrent use.
type Appender interface {
	Append(ctx context.Context, rec model.ExecutionRecord) error
}

// Options tunes a batch run.
type Options struct {
	// RunID identifies the batch. Generated when empty.
	RunID string
	// Concurrency caps in-flight test cases. Default: 4.
	Concurrency int
	// Retry governs per-case attempts. MaxAttempts is the total attempt
	// budget including the first try.
	Retry resilience.RetryPolicy
	// CaseTimeout bounds a single attempt. A timed-out attempt counts
	// as a transient failure and is retried. Zero disables it.
	CaseTimeout time.Duration
	// Limiter, when set, throttles attempt starts across all workers.
	Limiter *rate.Limiter
	// Scorer grades answers for cases that carry an expected value.
	Scorer scoring.Scorer
	// Sink, when set, receives each record as soon as it is final.
	Sink Appender
	// Cost attributes dollars to token usage for Model.
	Cost  *cost.Calculator
	Model string
}

// Harness runs batches. One Harness may run several batches, but each
// RunBatch call is independent.
type Harness struct {
	target Target
	opts   Options
}

// New creates a Harness for the given target.
func New(target Target, opts Options) *Harness {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = resilience.DefaultRetryPolicy()
	}
	return &Harness{target: target, opts: opts}
}

// RunBatch executes every test case and returns one record per case in
// input order. The slice is always full-length: a case that fails all
// its attempts, or never runs because the context was cancelled, still
// yields a record with status error. The returned error reports batch
// level problems (cancellation, sink failures), never individual case
// failures.
func (h *Harness) RunBatch(ctx context.Context, cases []model.TestCase) ([]model.ExecutionRecord, *model.RunMeta, error) {
	runID := h.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	meta := &model.RunMeta{
		RunID:     runID,
		Model:     h.opts.Model,
		StartedAt: time.Now().UTC(),
	}

	log := zap.L().With(zap.String("run_id", runID))
	log.Info("batch starting",
		zap.Int("cases", len(cases)),
		zap.Int("concurrency", h.opts.Concurrency),
		zap.Int("max_attempts", h.opts.Retry.MaxAttempts),
	)

	records := make([]model.ExecutionRecord, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.Concurrency)

	for i, tc := range cases {
		g.Go(func() error {
			records[i] = h.runCase(gctx, runID, tc)
			if h.opts.Sink != nil {
				// The record must be durable before the case counts as
				// done. Use the parent context so a failed sibling case
				// cannot drop records already earned.
				if err := h.opts.Sink.Append(ctx, records[i]); err != nil {
					return eris.Wrapf(err, "harness: persist record for case %s", tc.ID)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil && err == nil {
		err = ctxErr
	}

	succeeded := 0
	for _, r := range records {
		if r.Status == model.RecordSuccess {
			succeeded++
		}
	}
	log.Info("batch finished",
		zap.Int("succeeded", succeeded),
		zap.Int("total", len(cases)),
		zap.Error(err),
	)
	return records, meta, err
}

// runCase executes one test case through the retry policy and builds
// its record. It never returns an error; execution failure is a record
// status.
func (h *Harness) runCase(ctx context.Context, runID string, tc model.TestCase) model.ExecutionRecord {
	rec := model.ExecutionRecord{
		RunID:      runID,
		TestCaseID: tc.ID,
		Prompt:     tc.Prompt,
		CreatedAt:  time.Now().UTC(),
	}

	policy := h.opts.Retry
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger("eval case " + tc.ID)
	}

	out, attempts, err := resilience.Do(ctx, policy, func(ctx context.Context) (*Outcome, error) {
		return h.attempt(ctx, tc)
	})
	rec.Attempts = attempts

	if err != nil {
		rec.Status = model.RecordError
		rec.Response.Error = err.Error()
		return rec
	}

	rec.Response = model.Response{
		Text:             out.Text,
		PromptTokens:     out.PromptTokens,
		CompletionTokens: out.CompletionTokens,
		LatencyMS:        out.LatencyMS,
	}
	rec.TrajectorySteps = out.TrajectorySteps
	if h.opts.Cost != nil {
		rec.CostUSD = h.opts.Cost.Completion(h.opts.Model, out.PromptTokens, out.CompletionTokens)
	}

	rec.Status = model.RecordSuccess
	if h.opts.Scorer != nil {
		rec.Scoring = h.opts.Scorer.Score(tc.Expected, out.Text)
		if rec.Scoring != nil && !rec.Scoring.Matched {
			rec.Status = model.RecordFailure
		}
	}
	return rec
}

// attempt runs a single try under the rate limiter and the per-case
// timeout. Deadline overruns come back as transient failures so the
// retry policy treats them like any other flaky-infrastructure error.
func (h *Harness) attempt(ctx context.Context, tc model.TestCase) (*Outcome, error) {
	if h.opts.Limiter != nil {
		if err := h.opts.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if h.opts.CaseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.CaseTimeout)
		defer cancel()
	}

	out, err := h.target.Execute(ctx, tc)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, resilience.NewTransientError(err, resilience.ClassTimeout, 0)
		}
		return nil, err
	}
	return out, nil
}
