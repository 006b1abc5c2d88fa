package agent

import (
	"fmt"
	"strings"

	"github.com/sells-group/agent-eval/internal/model"
)

const (
	defaultSummaryWindow = 8
	maxObservationChars  = 240
)

// progressLog keeps a bounded rolling summary of recent steps. It is
// the only per-run context fed back into the model, so its size stays
// fixed regardless of how long a run gets.
type progressLog struct {
	window  int
	entries []string
}

func newProgressLog(window int) *progressLog {
	if window <= 0 {
		window = defaultSummaryWindow
	}
	return &progressLog{window: window}
}

func (p *progressLog) add(step model.Step) {
	entry := fmt.Sprintf("step %d: action=%s observation=%s",
		step.Sequence, step.Action, truncate(step.Observation, maxObservationChars))
	p.entries = append(p.entries, entry)
	if len(p.entries) > p.window {
		p.entries = p.entries[len(p.entries)-p.window:]
	}
}

func (p *progressLog) String() string {
	return strings.Join(p.entries, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
