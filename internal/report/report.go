// Package report aggregates execution records into run summaries.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/sells-group/agent-eval/internal/model"
)

// Summary aggregates one run's records.
type Summary struct {
	RunID     string  `json:"run_id,omitempty"`
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Errored   int     `json:"errored"`
	Scored    int     `json:"scored"`
	PassRate  float64 `json:"pass_rate"`
	MeanScore float64 `json:"mean_score"`

	LatencyP50MS float64 `json:"latency_p50_ms"`
	LatencyP95MS float64 `json:"latency_p95_ms"`

	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	TotalAttempts    int     `json:"total_attempts"`
}

// Summarize aggregates records. Pass rate is matched-over-scored;
// unscored cases carry no verdict and are excluded from it.
func Summarize(runID string, records []model.ExecutionRecord) Summary {
	s := Summary{RunID: runID, Total: len(records)}

	var latencies []float64
	var scoreSum float64
	matched := 0
	for _, r := range records {
		switch r.Status {
		case model.RecordSuccess:
			s.Succeeded++
		case model.RecordFailure:
			s.Failed++
		case model.RecordError:
			s.Errored++
		}
		if r.Scoring != nil {
			s.Scored++
			scoreSum += r.Scoring.Score
			if r.Scoring.Matched {
				matched++
			}
		}
		if r.Status != model.RecordError {
			latencies = append(latencies, r.Response.LatencyMS)
		}
		s.PromptTokens += r.Response.PromptTokens
		s.CompletionTokens += r.Response.CompletionTokens
		s.CostUSD += r.CostUSD
		s.TotalAttempts += r.Attempts
	}

	if s.Scored > 0 {
		s.PassRate = float64(matched) / float64(s.Scored)
		s.MeanScore = scoreSum / float64(s.Scored)
	}
	s.LatencyP50MS = percentile(latencies, 0.50)
	s.LatencyP95MS = percentile(latencies, 0.95)
	return s
}

// percentile returns the nearest-rank percentile of values, or zero
// for an empty input.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// Render writes a human-readable summary table.
func Render(out io.Writer, s Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if s.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", s.RunID)
	}
	_, _ = fmt.Fprintf(w, "Total cases:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Succeeded:\t%d\n", s.Succeeded)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Errored:\t%d\n", s.Errored)
	if s.Scored > 0 {
		_, _ = fmt.Fprintf(w, "Pass rate:\t%.1f%% (%d scored)\n", s.PassRate*100, s.Scored)
		_, _ = fmt.Fprintf(w, "Mean score:\t%.3f\n", s.MeanScore)
	}
	_, _ = fmt.Fprintf(w, "Latency p50:\t%.0f ms\n", s.LatencyP50MS)
	_, _ = fmt.Fprintf(w, "Latency p95:\t%.0f ms\n", s.LatencyP95MS)
	_, _ = fmt.Fprintf(w, "Tokens:\t%d in / %d out\n", s.PromptTokens, s.CompletionTokens)
	if s.CostUSD > 0 {
		_, _ = fmt.Fprintf(w, "Cost:\t$%.4f\n", s.CostUSD)
	}
	_, _ = fmt.Fprintf(w, "Attempts:\t%d\n", s.TotalAttempts)
	_ = w.Flush()
}

// RenderRecords writes a per-case table.
func RenderRecords(out io.Writer, records []model.ExecutionRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CASE\tSTATUS\tSCORE\tATTEMPTS\tLATENCY\tANSWER")
	_, _ = fmt.Fprintln(w, "----\t------\t-----\t--------\t-------\t------")
	for _, r := range records {
		score := "-"
		if r.Scoring != nil {
			score = fmt.Sprintf("%.2f", r.Scoring.Score)
		}
		answer := r.Response.Text
		if r.Status == model.RecordError {
			answer = r.Response.Error
		}
		if len(answer) > 40 {
			answer = answer[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f ms\t%s\n",
			r.TestCaseID, r.Status, score, r.Attempts, r.Response.LatencyMS, answer)
	}
	_ = w.Flush()
}
