package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtmp(t *testing.T) {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	chtmp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(1024), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "jsonl", cfg.Sink.Driver)
	assert.Equal(t, "results.jsonl", cfg.Sink.DSN)
	assert.Equal(t, 4, cfg.Eval.Concurrency)
	assert.Equal(t, 3, cfg.Eval.MaxAttempts)
	assert.Equal(t, 500, cfg.Eval.BaseDelayMS)
	assert.Equal(t, "normalized", cfg.Eval.Scorer)
	assert.Equal(t, 10, cfg.Agent.MaxSteps)
	assert.Equal(t, 8, cfg.Agent.SummaryWindow)
	assert.True(t, cfg.Tools.Calculator)
	assert.True(t, cfg.Tools.Clock)
	assert.False(t, cfg.Tools.File)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtmp(t)

	yaml := `
sink:
  driver: sqlite
  dsn: eval.db
eval:
  concurrency: 16
  scorer: contains
agent:
  max_steps: 5
log:
  level: debug
  format: console
pricing:
  models:
    test-model:
      input: 1.5
      output: 6.0
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Sink.Driver)
	assert.Equal(t, "eval.db", cfg.Sink.DSN)
	assert.Equal(t, 16, cfg.Eval.Concurrency)
	assert.Equal(t, "contains", cfg.Eval.Scorer)
	assert.Equal(t, 5, cfg.Agent.MaxSteps)
	// Unset keys keep their defaults.
	assert.Equal(t, 3, cfg.Eval.MaxAttempts)
	assert.InDelta(t, 1.5, cfg.Pricing.Models["test-model"].Input, 0.001)
	assert.InDelta(t, 6.0, cfg.Pricing.Models["test-model"].Output, 0.001)
}

func TestLoadFromEnv(t *testing.T) {
	chtmp(t)
	t.Setenv("AGENTEVAL_SINK_DRIVER", "postgres")
	t.Setenv("AGENTEVAL_EVAL_CONCURRENCY", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Sink.Driver)
	assert.Equal(t, 9, cfg.Eval.Concurrency)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "nonsense", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
