// Package config loads application configuration from file and
// environment and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Sink      SinkConfig      `yaml:"sink" mapstructure:"sink"`
	Eval      EvalConfig      `yaml:"eval" mapstructure:"eval"`
	Agent     AgentConfig     `yaml:"agent" mapstructure:"agent"`
	Tools     ToolsConfig     `yaml:"tools" mapstructure:"tools"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	System    string `yaml:"system" mapstructure:"system"`
}

// SinkConfig configures result persistence.
type SinkConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// EvalConfig configures batch execution.
type EvalConfig struct {
	Concurrency     int     `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts     int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMS     int     `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMS      int     `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	CaseTimeoutSecs int     `yaml:"case_timeout_secs" mapstructure:"case_timeout_secs"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Scorer          string  `yaml:"scorer" mapstructure:"scorer"`
}

// AgentConfig configures the reasoning loop.
type AgentConfig struct {
	MaxSteps      int `yaml:"max_steps" mapstructure:"max_steps"`
	SummaryWindow int `yaml:"summary_window" mapstructure:"summary_window"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ToolsConfig selects built-in capabilities.
type ToolsConfig struct {
	Calculator bool   `yaml:"calculator" mapstructure:"calculator"`
	Clock      bool   `yaml:"clock" mapstructure:"clock"`
	File       bool   `yaml:"file" mapstructure:"file"`
	WebSearch  bool   `yaml:"web_search" mapstructure:"web_search"`
	FileRoot   string `yaml:"file_root" mapstructure:"file_root"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// PricingConfig holds per-model pricing rates.
type PricingConfig struct {
	Models map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ServerConfig configures the results API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AGENTEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("sink.driver", "jsonl")
	v.SetDefault("sink.dsn", "results.jsonl")
	v.SetDefault("eval.concurrency", 4)
	v.SetDefault("eval.max_attempts", 3)
	v.SetDefault("eval.base_delay_ms", 500)
	v.SetDefault("eval.max_delay_ms", 30000)
	v.SetDefault("eval.case_timeout_secs", 120)
	v.SetDefault("eval.scorer", "normalized")
	v.SetDefault("agent.max_steps", 10)
	v.SetDefault("agent.summary_window", 8)
	v.SetDefault("agent.timeout_secs", 300)
	v.SetDefault("tools.calculator", true)
	v.SetDefault("tools.clock", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
