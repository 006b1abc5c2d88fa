package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// Clock reports the current time. Injectable for deterministic tests.
type Clock struct {
	Now func() time.Time
}

func (c Clock) Description() string {
	return `clock: current time - {"operation":"now"}`
}

func (c Clock) Execute(_ context.Context, input map[string]any) (string, error) {
	op, err := stringArg(input, "operation")
	if err != nil {
		return "", err
	}
	if op != "now" {
		return "", eris.Errorf("unknown clock operation %q", op)
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().UTC().Format(time.RFC3339), nil
}

// WebSearch is a placeholder capability: it acknowledges the query
// without performing a search. Kept registered so agents can name it
// and get a well-formed observation instead of an unknown-capability
// error.
type WebSearch struct{}

func (WebSearch) Description() string {
	return `web_search: search the web - {"query":"..."} (not connected in this build)`
}

func (WebSearch) Execute(_ context.Context, input map[string]any) (string, error) {
	query, err := stringArg(input, "query")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("web search for %q is not available in this build", query), nil
}

// BuiltinConfig selects which built-in capabilities to register.
type BuiltinConfig struct {
	EnableFile       bool
	EnableCalculator bool
	EnableClock      bool
	EnableWebSearch  bool
	FileRoot         string
}

// DefaultBuiltins enables the side-effect-free capabilities.
func DefaultBuiltins() BuiltinConfig {
	return BuiltinConfig{
		EnableCalculator: true,
		EnableClock:      true,
	}
}

// NewBuiltinGateway constructs a gateway with the configured built-in
// handlers registered.
func NewBuiltinGateway(cfg BuiltinConfig) (*Gateway, error) {
	g := NewGateway()
	if cfg.EnableCalculator {
		if err := g.Register("calculator", Calculator{}); err != nil {
			return nil, err
		}
	}
	if cfg.EnableFile {
		if err := g.Register("file", NewFileOps(cfg.FileRoot)); err != nil {
			return nil, err
		}
	}
	if cfg.EnableClock {
		if err := g.Register("clock", Clock{}); err != nil {
			return nil, err
		}
	}
	if cfg.EnableWebSearch {
		if err := g.Register("web_search", WebSearch{}); err != nil {
			return nil, err
		}
	}
	return g, nil
}
