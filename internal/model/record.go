package model

import "time"

// RecordStatus is the outcome of one test case execution.
type RecordStatus string

const (
	RecordSuccess RecordStatus = "success"
	RecordFailure RecordStatus = "failure"
	RecordError   RecordStatus = "error"
)

// TestCase is a single evaluation input. Supplied by the caller,
// immutable, with an ID unique within its batch.
type TestCase struct {
	ID       string            `json:"id" yaml:"id"`
	Prompt   string            `json:"prompt" yaml:"prompt"`
	Expected *string           `json:"expected,omitempty" yaml:"expected,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ScoreResult is the output of a scorer for one (expected, actual)
// pair. A nil *ScoreResult means no ground truth was available.
type ScoreResult struct {
	Score   float64           `json:"score"`
	Matched bool              `json:"matched"`
	Method  string            `json:"method"`
	Details map[string]string `json:"details,omitempty"`
}

// Response captures what came back from the model collaborator (or the
// agent loop) for one execution.
type Response struct {
	Text             string  `json:"text"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	LatencyMS        float64 `json:"latency_ms"`
	Error            string  `json:"error,omitempty"`
}

// ExecutionRecord is written exactly once per TestCase per batch run,
// after the case succeeds or its retries are exhausted.
type ExecutionRecord struct {
	RunID           string       `json:"run_id"`
	TestCaseID      string       `json:"test_case_id"`
	Prompt          string       `json:"prompt"`
	Response        Response     `json:"response"`
	Scoring         *ScoreResult `json:"scoring,omitempty"`
	Status          RecordStatus `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	Attempts        int          `json:"attempts"`
	CostUSD         float64      `json:"cost_usd,omitempty"`
	TrajectorySteps int          `json:"trajectory_steps,omitempty"`
}

// RunMeta describes one batch run.
type RunMeta struct {
	RunID     string    `json:"run_id"`
	SuiteID   string    `json:"suite_id"`
	Model     string    `json:"model"`
	StartedAt time.Time `json:"started_at"`
}
