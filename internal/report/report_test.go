package report

import (
	"strings"
	"testing"

	"github.com/sells-group/agent-eval/internal/model"
)

func rec(status model.RecordStatus, score *model.ScoreResult, latency float64) model.ExecutionRecord {
	return model.ExecutionRecord{
		TestCaseID: "c",
		Status:     status,
		Scoring:    score,
		Response:   model.Response{LatencyMS: latency, PromptTokens: 100, CompletionTokens: 20},
		Attempts:   1,
		CostUSD:    0.001,
	}
}

func hit() *model.ScoreResult  { return &model.ScoreResult{Score: 1, Matched: true, Method: "exact"} }
func miss() *model.ScoreResult { return &model.ScoreResult{Score: 0, Matched: false, Method: "exact"} }

func TestSummarize(t *testing.T) {
	records := []model.ExecutionRecord{
		rec(model.RecordSuccess, hit(), 100),
		rec(model.RecordSuccess, hit(), 200),
		rec(model.RecordFailure, miss(), 300),
		rec(model.RecordSuccess, nil, 400),
		rec(model.RecordError, nil, 0),
	}

	s := Summarize("run-1", records)
	if s.Total != 5 || s.Succeeded != 3 || s.Failed != 1 || s.Errored != 1 {
		t.Errorf("counts: %+v", s)
	}
	if s.Scored != 3 {
		t.Errorf("Scored = %d, want 3", s.Scored)
	}
	if want := 2.0 / 3.0; s.PassRate != want {
		t.Errorf("PassRate = %f, want %f", s.PassRate, want)
	}
	if want := 2.0 / 3.0; s.MeanScore != want {
		t.Errorf("MeanScore = %f, want %f", s.MeanScore, want)
	}
	if s.PromptTokens != 500 || s.CompletionTokens != 100 {
		t.Errorf("tokens: %+v", s)
	}
	if s.TotalAttempts != 5 {
		t.Errorf("TotalAttempts = %d", s.TotalAttempts)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("run-1", nil)
	if s.Total != 0 || s.PassRate != 0 || s.LatencyP50MS != 0 {
		t.Errorf("empty summary: %+v", s)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if p := percentile(values, 0.50); p != 50 {
		t.Errorf("p50 = %f", p)
	}
	if p := percentile(values, 0.95); p != 100 {
		t.Errorf("p95 = %f", p)
	}
	if p := percentile([]float64{42}, 0.95); p != 42 {
		t.Errorf("single value p95 = %f", p)
	}
}

func TestRender(t *testing.T) {
	var sb strings.Builder
	Render(&sb, Summarize("run-1", []model.ExecutionRecord{
		rec(model.RecordSuccess, hit(), 120),
	}))
	out := sb.String()
	for _, want := range []string{"run-1", "Total cases:", "Pass rate:", "100.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderRecords_TruncatesAnswer(t *testing.T) {
	var sb strings.Builder
	r := rec(model.RecordSuccess, nil, 10)
	r.Response.Text = strings.Repeat("x", 100)
	RenderRecords(&sb, []model.ExecutionRecord{r})
	if !strings.Contains(sb.String(), "...") {
		t.Error("long answer not truncated")
	}
}
