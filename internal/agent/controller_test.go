package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/sells-group/agent-eval/internal/model"
	"github.com/sells-group/agent-eval/internal/tool"
	"github.com/sells-group/agent-eval/pkg/llm"
)

func builtinGateway(t *testing.T) *tool.Gateway {
	t.Helper()
	g, err := tool.NewBuiltinGateway(tool.DefaultBuiltins())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// checkTrajectory verifies the invariants every finished run must hold:
// contiguous sequence numbers from 1 and a single terminal step at most.
func checkTrajectory(t *testing.T, traj model.Trajectory) {
	t.Helper()
	terminal := 0
	for i, s := range traj.Steps {
		if s.Sequence != i+1 {
			t.Errorf("step %d has sequence %d", i, s.Sequence)
		}
		if s.Outcome == model.OutcomeFinal {
			terminal++
		}
	}
	if terminal > 1 {
		t.Errorf("trajectory has %d terminal steps", terminal)
	}
	if traj.EndedAt == nil {
		t.Error("finished trajectory has no end time")
	}
}

func TestRun_ToolThenFinalAnswer(t *testing.T) {
	// Cycle 1: default thought, action prompt resolves to a calculator
	// call. Cycle 2: the progress summary mentions the first step, which
	// scripts a second thought whose action prompt finalizes.
	client := llm.NewScripted("I should add the numbers with the calculator.").
		WithRule("second-thought", `{"action": "final_answer", "action_input": {"answer": "4"}}`).
		WithRule("step 1: action=calculator", "second-thought").
		WithRule("Decide the next action", `{"action": "calculator", "action_input": {"operation": "add", "a": 2, "b": 2}}`)

	ctrl := New(client, builtinGateway(t), Options{MaxSteps: 5})
	res, err := ctrl.Run(context.Background(), "What is 2+2?")
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != "4" {
		t.Errorf("Answer = %q, want %q", res.Answer, "4")
	}
	if res.Trajectory.Status != model.StatusFinalAnswer {
		t.Errorf("Status = %q", res.Trajectory.Status)
	}
	if len(res.Trajectory.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(res.Trajectory.Steps))
	}
	if res.Trajectory.Steps[0].Observation != "4" {
		t.Errorf("calculator observation = %q", res.Trajectory.Steps[0].Observation)
	}
	if res.Trajectory.Steps[1].Outcome != model.OutcomeFinal {
		t.Errorf("last step outcome = %q", res.Trajectory.Steps[1].Outcome)
	}
	if res.PromptTokens == 0 || res.CompletionTokens == 0 {
		t.Error("token totals not accumulated")
	}
	checkTrajectory(t, res.Trajectory)
}

func TestRun_UnknownCapabilityBecomesObservation(t *testing.T) {
	// The first decision names a capability that does not exist. The run
	// must record the failure as an observation and keep going.
	client := llm.NewScripted("thinking").
		WithRule("step 1: action=teleport", "recovery-thought").
		WithRule("recovery-thought", `{"action": "final_answer", "action_input": {"answer": "recovered"}}`).
		WithRule("Decide the next action", `{"action": "teleport", "action_input": {}}`)

	ctrl := New(client, builtinGateway(t), Options{MaxSteps: 5})
	res, err := ctrl.Run(context.Background(), "go somewhere")
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != "recovered" {
		t.Errorf("Answer = %q", res.Answer)
	}
	first := res.Trajectory.Steps[0]
	if first.Outcome != model.OutcomeError {
		t.Errorf("first step outcome = %q, want error", first.Outcome)
	}
	if first.Observation == "" {
		t.Error("failure observation is empty")
	}
	checkTrajectory(t, res.Trajectory)
}

func TestRun_MaxStepsExceeded(t *testing.T) {
	client := llm.NewScripted("keep going").
		WithRule("Decide the next action", `{"action": "clock", "action_input": {"operation": "now"}}`)

	ctrl := New(client, builtinGateway(t), Options{MaxSteps: 3})
	res, err := ctrl.Run(context.Background(), "never finishes")
	if !errors.Is(err, ErrMaxSteps) {
		t.Fatalf("err = %v, want ErrMaxSteps", err)
	}
	if res == nil {
		t.Fatal("budget exhaustion must still return the partial result")
	}
	if len(res.Trajectory.Steps) != 3 {
		t.Errorf("steps = %d, want 3", len(res.Trajectory.Steps))
	}
	if res.Trajectory.Status != model.StatusMaxSteps {
		t.Errorf("Status = %q", res.Trajectory.Status)
	}
	if res.Answer == "" {
		t.Error("partial answer (progress summary) is empty")
	}
	checkTrajectory(t, res.Trajectory)
}

func TestRun_RepairRecoversMalformedDecision(t *testing.T) {
	client := llm.NewScripted("thinking").
		WithRule("could not be parsed", `{"action": "final_answer", "action_input": {"answer": "fixed"}}`).
		WithRule("Decide the next action", "Definitely the calculator, no JSON though.")

	ctrl := New(client, builtinGateway(t), Options{MaxSteps: 2})
	res, err := ctrl.Run(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if res.Answer != "fixed" {
		t.Errorf("Answer = %q", res.Answer)
	}
	// thought + malformed decision + repair
	if client.Calls() != 3 {
		t.Errorf("model calls = %d, want 3", client.Calls())
	}
}

func TestRun_UnparseableAfterRepairIsFatal(t *testing.T) {
	client := llm.NewScripted("thinking").
		WithRule("could not be parsed", "still not JSON").
		WithRule("Decide the next action", "not JSON either")

	ctrl := New(client, builtinGateway(t), Options{MaxSteps: 2})
	_, err := ctrl.Run(context.Background(), "anything")

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("err = %v, want FatalError", err)
	}
	if !errors.Is(err, ErrUnparseableDecision) {
		t.Errorf("err = %v, want wrapped ErrUnparseableDecision", err)
	}
}

func TestRun_ModelFailureIsFatal(t *testing.T) {
	boom := errors.New("upstream down")
	client := llm.NewScripted("thinking").FailFirst(1, boom)

	ctrl := New(client, builtinGateway(t), Options{MaxSteps: 2})
	_, err := ctrl.Run(context.Background(), "anything")

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("err = %v, want FatalError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := llm.NewScripted("thinking")
	ctrl := New(client, builtinGateway(t), Options{MaxSteps: 2})
	if _, err := ctrl.Run(ctx, "anything"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
