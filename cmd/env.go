package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/agent-eval/internal/agent"
	"github.com/sells-group/agent-eval/internal/cost"
	"github.com/sells-group/agent-eval/internal/sink"
	"github.com/sells-group/agent-eval/internal/tool"
	"github.com/sells-group/agent-eval/pkg/llm"
)

// initClient builds the model client. With mock set it returns a
// scripted client so runs work offline.
func initClient(mock bool) (llm.Client, error) {
	if mock {
		return llm.NewScripted("").
			WithRule("Decide the next action", `{"action": "final_answer", "action_input": {"answer": "mock answer"}}`), nil
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic.key is not configured (set AGENTEVAL_ANTHROPIC_KEY)")
	}
	return llm.NewAnthropic(cfg.Anthropic.Key, cfg.Anthropic.Model), nil
}

func initGateway() (*tool.Gateway, error) {
	return tool.NewBuiltinGateway(tool.BuiltinConfig{
		EnableCalculator: cfg.Tools.Calculator,
		EnableClock:      cfg.Tools.Clock,
		EnableFile:       cfg.Tools.File,
		EnableWebSearch:  cfg.Tools.WebSearch,
		FileRoot:         cfg.Tools.FileRoot,
	})
}

func initSink(ctx context.Context) (sink.Sink, error) {
	return sink.Open(ctx, cfg.Sink.Driver, cfg.Sink.DSN)
}

func agentOptions() agent.Options {
	return agent.Options{
		MaxSteps:      cfg.Agent.MaxSteps,
		SummaryWindow: cfg.Agent.SummaryWindow,
		Timeout:       time.Duration(cfg.Agent.TimeoutSecs) * time.Second,
		Model: llm.Options{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
			System:    cfg.Anthropic.System,
		},
	}
}

// costCalculator merges configured pricing over the defaults.
func costCalculator() *cost.Calculator {
	rates := cost.DefaultRates()
	for name, p := range cfg.Pricing.Models {
		rates.Models[name] = cost.ModelRate{Input: p.Input, Output: p.Output}
	}
	return cost.NewCalculator(rates)
}
