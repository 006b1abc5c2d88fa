package model

import "time"

// TerminalStatus is the final disposition of a trajectory.
type TerminalStatus string

const (
	// StatusFinalAnswer means the agent produced a final answer.
	StatusFinalAnswer TerminalStatus = "final_answer"
	// StatusMaxSteps means the step budget ran out before an answer.
	StatusMaxSteps TerminalStatus = "max_steps_exceeded"
	// StatusFatal means the model collaborator failed unrecoverably.
	StatusFatal TerminalStatus = "fatal_error"
)

// StepOutcome classifies how a single step ended.
type StepOutcome string

const (
	OutcomeObservation StepOutcome = "observation"
	OutcomeFinal       StepOutcome = "final"
	OutcomeError       StepOutcome = "error"
)

// ActionDecision is the parsed result of one reasoning cycle: either a
// capability invocation or a final answer. It is not persisted on its
// own; it is embedded into the Step that produced it.
type ActionDecision struct {
	Action      string         `json:"action"`
	ActionInput map[string]any `json:"action_input"`
	IsFinal     bool           `json:"-"`
}

// FinalAnswer extracts the answer text from a final-answer decision.
func (d ActionDecision) FinalAnswer() string {
	if v, ok := d.ActionInput["answer"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Step is one think→decide→act→observe cycle. Immutable once appended
// to a trajectory. Sequence numbers start at 1 and are contiguous.
type Step struct {
	Sequence    int            `json:"sequence"`
	Timestamp   time.Time      `json:"timestamp"`
	Thought     string         `json:"thought"`
	Action      string         `json:"action"`
	ActionInput map[string]any `json:"action_input,omitempty"`
	Observation string         `json:"observation"`
	Outcome     StepOutcome    `json:"outcome"`
}

// Trajectory is the ordered record of one task run. It is mutated only
// by the recorder that owns it and becomes read-only once finalized.
type Trajectory struct {
	Task        string         `json:"task"`
	StartedAt   time.Time      `json:"started_at"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
	Steps       []Step         `json:"steps"`
	Status      TerminalStatus `json:"status,omitempty"`
	FinalResult string         `json:"final_result,omitempty"`
}

// Duration reports the wall-clock time of a finalized trajectory, or
// zero if it is still open.
func (t *Trajectory) Duration() time.Duration {
	if t.EndedAt == nil {
		return 0
	}
	return t.EndedAt.Sub(t.StartedAt)
}
