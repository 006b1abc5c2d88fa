package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/agent-eval/internal/harness"
	"github.com/sells-group/agent-eval/internal/report"
	"github.com/sells-group/agent-eval/internal/resilience"
	"github.com/sells-group/agent-eval/internal/scoring"
	"github.com/sells-group/agent-eval/internal/suite"
)

var (
	evalSuitePath   string
	evalConcurrency int
	evalAttempts    int
	evalScorer      string
	evalUseAgent    bool
	evalMock        bool
	evalJSON        bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a test suite",
	Long:  "Runs every case in a suite against the model (or the full agent loop), scores the answers, and persists one record per case.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		s, err := suite.Load(evalSuitePath)
		if err != nil {
			return err
		}

		client, err := initClient(evalMock)
		if err != nil {
			return err
		}

		var target harness.Target
		if evalUseAgent {
			gateway, err := initGateway()
			if err != nil {
				return err
			}
			target = harness.AgentTarget{Client: client, Gateway: gateway, Opts: agentOptions()}
		} else {
			opts := agentOptions()
			target = harness.ModelTarget{Client: client, Opts: opts.Model}
		}

		scorerName := evalScorer
		if scorerName == "" {
			scorerName = cfg.Eval.Scorer
		}
		scorer, err := scoring.New(scorerName)
		if err != nil {
			return err
		}

		snk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer snk.Close() //nolint:errcheck

		opts := harness.Options{
			Concurrency: cfg.Eval.Concurrency,
			Retry:       resilience.Policy(cfg.Eval.MaxAttempts, cfg.Eval.BaseDelayMS, cfg.Eval.MaxDelayMS),
			CaseTimeout: time.Duration(cfg.Eval.CaseTimeoutSecs) * time.Second,
			Scorer:      scorer,
			Sink:        snk,
			Cost:        costCalculator(),
			Model:       cfg.Anthropic.Model,
		}
		if evalConcurrency > 0 {
			opts.Concurrency = evalConcurrency
		}
		if evalAttempts > 0 {
			opts.Retry = resilience.Policy(evalAttempts, cfg.Eval.BaseDelayMS, cfg.Eval.MaxDelayMS)
		}
		if cfg.Eval.RatePerSec > 0 {
			opts.Limiter = rate.NewLimiter(rate.Limit(cfg.Eval.RatePerSec), 1)
		}

		records, meta, runErr := harness.New(target, opts).RunBatch(ctx, s.Cases)
		if runErr != nil {
			zap.L().Error("batch finished with errors", zap.Error(runErr))
		}

		summary := report.Summarize(meta.RunID, records)
		if evalJSON {
			return printJSON(summary)
		}
		report.RenderRecords(os.Stdout, records)
		fmt.Println()
		report.Render(os.Stdout, summary)

		if runErr != nil {
			return eris.Wrap(runErr, "eval")
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalSuitePath, "suite", "", "suite file (yaml, json, or jsonl)")
	evalCmd.Flags().IntVar(&evalConcurrency, "concurrency", 0, "override configured concurrency cap")
	evalCmd.Flags().IntVar(&evalAttempts, "attempts", 0, "override configured per-case attempt budget")
	evalCmd.Flags().StringVar(&evalScorer, "scorer", "", "scoring method: exact, normalized, contains")
	evalCmd.Flags().BoolVar(&evalUseAgent, "agent", false, "run the full reasoning loop instead of single completions")
	evalCmd.Flags().BoolVar(&evalMock, "mock", false, "use the offline scripted model client")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "print the summary as JSON")
	_ = evalCmd.MarkFlagRequired("suite")
	rootCmd.AddCommand(evalCmd)
}
