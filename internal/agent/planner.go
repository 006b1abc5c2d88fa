package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agent-eval/internal/model"
)

// FinalAnswerAction is the reserved decision name that terminates a run.
const FinalAnswerAction = "final_answer"

// ErrUnparseableDecision means the model's action response could not be
// parsed into a decision, even after a repair attempt.
var ErrUnparseableDecision = eris.New("agent: unparseable action decision")

// buildThoughtPrompt asks the model to reason about the next move given
// the task, the bounded progress summary, and the capability roster.
func buildThoughtPrompt(task, progress, capabilities string) string {
	if progress == "" {
		progress = "No progress yet."
	}
	return fmt.Sprintf(`You are an assistant working step by step on a task.

Task: %s

Progress so far:
%s

Available capabilities:
%s

Think about the next move. Consider what information you still need and
which capability, if any, would provide it. Reply with a short, concrete
thought.`, task, progress, capabilities)
}

// buildActionPrompt asks the model to turn a thought into a single JSON
// decision.
func buildActionPrompt(thought, capabilities string) string {
	return fmt.Sprintf(`Based on this thought:
%s

Decide the next action. Either invoke one capability or give the final
answer if you have enough information.

Available capabilities:
%s

Respond with a single JSON object and nothing else:
{"action": "<capability name>", "action_input": {"operation": "...", ...}}
or
{"action": "final_answer", "action_input": {"answer": "<the answer>"}}`, thought, capabilities)
}

// buildRepairPrompt asks the model to re-emit a malformed decision as
// valid JSON. Used at most once per cycle.
func buildRepairPrompt(raw string) string {
	return fmt.Sprintf(`Your previous response could not be parsed as a JSON action decision:

%s

Re-emit it as a single valid JSON object of the form
{"action": "...", "action_input": {...}} with no surrounding text.`, raw)
}

// parseDecision extracts an ActionDecision from a model response. The
// response may wrap the JSON object in prose or a code fence. A
// decision that names both an action and an answer is treated as a
// final answer (final_answer takes precedence over ambiguity).
func parseDecision(response string) (model.ActionDecision, error) {
	raw := extractJSONObject(response)
	if raw == "" {
		return model.ActionDecision{}, eris.Wrapf(ErrUnparseableDecision, "no JSON object in response")
	}

	var d model.ActionDecision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return model.ActionDecision{}, eris.Wrapf(ErrUnparseableDecision, "invalid JSON: %v", err)
	}
	if d.Action == "" {
		return model.ActionDecision{}, eris.Wrapf(ErrUnparseableDecision, "missing action field")
	}
	if d.ActionInput == nil {
		d.ActionInput = map[string]any{}
	}

	_, hasAnswer := d.ActionInput["answer"]
	d.IsFinal = d.Action == FinalAnswerAction || hasAnswer
	return d, nil
}

// extractJSONObject returns the first balanced {...} region of s, or ""
// if none exists.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
