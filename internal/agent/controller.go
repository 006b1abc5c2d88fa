// Package agent drives the think→decide→act→observe loop for one task
// against a model collaborator and a capability gateway.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/agent-eval/internal/model"
	"github.com/sells-group/agent-eval/internal/tool"
	"github.com/sells-group/agent-eval/internal/trajectory"
	"github.com/sells-group/agent-eval/pkg/llm"
)

// ErrMaxSteps is returned when the step budget runs out before a final
// answer. It is a non-error outcome for the batch harness: the task
// simply wasn't solved in budget.
var ErrMaxSteps = eris.New("agent: max steps exceeded")

// FatalError wraps an unrecoverable collaborator failure: the model
// call itself failed, or its decision stayed unparseable after one
// repair attempt.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "agent: fatal: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Options tunes a controller.
type Options struct {
	// MaxSteps bounds the number of full cycles. Default: 10.
	MaxSteps int
	// SummaryWindow is how many recent step summaries feed back into
	// each model call. Default: 8.
	SummaryWindow int
	// Timeout bounds the whole run's wall clock. Zero disables it.
	Timeout time.Duration
	// Completion options passed through to the model client.
	Model llm.Options
}

// Result is a completed (or budget-exhausted) run.
type Result struct {
	Answer     string
	Trajectory model.Trajectory
	// Token totals across every model call of the run.
	PromptTokens     int64
	CompletionTokens int64
}

// Controller runs one task at a time. It is strictly sequential: each
// cycle depends on the previous observation, so there is exactly one
// model call and at most one capability call in flight. A Controller
// holds no cross-run state and may be reused for consecutive runs.
type Controller struct {
	client  llm.Client
	gateway *tool.Gateway
	opts    Options
}

// New creates a Controller.
func New(client llm.Client, gateway *tool.Gateway, opts Options) *Controller {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 10
	}
	return &Controller{client: client, gateway: gateway, opts: opts}
}

// Run drives the loop until a final answer, the step budget, or a
// fatal collaborator failure. Capability failures never abort the run;
// they become observations for the next cycle. On ErrMaxSteps the
// returned Result carries the running summary as a partial answer.
func (c *Controller) Run(ctx context.Context, task string) (*Result, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	log := zap.L().With(zap.String("task", truncate(task, 80)))
	log.Info("agent run starting", zap.Int("max_steps", c.opts.MaxSteps))

	rec := trajectory.NewRecorder(task)
	progress := newProgressLog(c.opts.SummaryWindow)
	capabilities := c.gateway.Describe()
	res := &Result{}

	for seq := 1; seq <= c.opts.MaxSteps; seq++ {
		thought, err := c.complete(ctx, buildThoughtPrompt(task, progress.String(), capabilities), res)
		if err != nil {
			return nil, c.fatal(rec, eris.Wrap(err, "thought"))
		}

		decision, err := c.decide(ctx, thought, capabilities, res)
		if err != nil {
			return nil, c.fatal(rec, err)
		}

		step := model.Step{
			Sequence:    seq,
			Timestamp:   time.Now().UTC(),
			Thought:     thought,
			Action:      decision.Action,
			ActionInput: decision.ActionInput,
		}

		if decision.IsFinal {
			step.Action = FinalAnswerAction
			step.Observation = "task completed"
			step.Outcome = model.OutcomeFinal
			if err := rec.Append(step); err != nil {
				return nil, c.fatal(rec, err)
			}
			answer := decision.FinalAnswer()
			_ = rec.Finalize(model.StatusFinalAnswer, answer)
			log.Info("agent run finished", zap.Int("steps", seq))
			res.Answer = answer
			res.Trajectory = rec.Trajectory()
			return res, nil
		}

		obs, invokeErr := c.gateway.Invoke(ctx, decision.Action, decision.ActionInput)
		if invokeErr != nil {
			// Unknown capabilities and handler failures are
			// self-correction fodder, not terminal conditions.
			step.Observation = invokeErr.Error()
			step.Outcome = model.OutcomeError
			log.Warn("capability failed",
				zap.String("capability", decision.Action),
				zap.Error(invokeErr),
			)
		} else {
			step.Observation = obs
			step.Outcome = model.OutcomeObservation
		}

		if err := rec.Append(step); err != nil {
			return nil, c.fatal(rec, err)
		}
		progress.add(step)
	}

	// Budget exhausted: the in-flight cycle above completed, so the
	// trajectory ends cleanly with the summary as a partial answer.
	partial := progress.String()
	_ = rec.Finalize(model.StatusMaxSteps, partial)
	log.Warn("agent run exceeded step budget", zap.Int("max_steps", c.opts.MaxSteps))
	res.Answer = partial
	res.Trajectory = rec.Trajectory()
	return res, eris.Wrapf(ErrMaxSteps, "%d steps", c.opts.MaxSteps)
}

// decide turns a thought into a decision, allowing the model one repair
// attempt for malformed output.
func (c *Controller) decide(ctx context.Context, thought, capabilities string, res *Result) (model.ActionDecision, error) {
	raw, err := c.complete(ctx, buildActionPrompt(thought, capabilities), res)
	if err != nil {
		return model.ActionDecision{}, eris.Wrap(err, "decision")
	}

	decision, parseErr := parseDecision(raw)
	if parseErr == nil {
		return decision, nil
	}

	repaired, err := c.complete(ctx, buildRepairPrompt(raw), res)
	if err != nil {
		return model.ActionDecision{}, eris.Wrap(err, "decision repair")
	}
	decision, parseErr = parseDecision(repaired)
	if parseErr != nil {
		return model.ActionDecision{}, parseErr
	}
	return decision, nil
}

func (c *Controller) complete(ctx context.Context, prompt string, res *Result) (string, error) {
	completion, err := c.client.Complete(ctx, prompt, c.opts.Model)
	if err != nil {
		return "", err
	}
	res.PromptTokens += completion.PromptTokens
	res.CompletionTokens += completion.CompletionTokens
	return completion.Text, nil
}

// fatal finalizes the trajectory and wraps err as a FatalError.
func (c *Controller) fatal(rec *trajectory.Recorder, err error) error {
	if !rec.Closed() {
		_ = rec.Finalize(model.StatusFatal, err.Error())
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	return &FatalError{Err: err}
}
