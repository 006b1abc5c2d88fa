// Package tool maps capability names to executable handlers and
// dispatches agent action decisions to them.
package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnknownCapability is returned by Invoke for unregistered names.
var ErrUnknownCapability = eris.New("unknown capability")

// ErrDuplicateCapability is returned by Register when a name is taken.
var ErrDuplicateCapability = eris.New("duplicate capability")

// CapabilityError wraps a handler failure. It is never process-fatal:
// the controller records its text as the step observation and the loop
// continues.
type CapabilityError struct {
	Capability string
	Err        error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s: %v", e.Capability, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Handler executes a single named capability.
type Handler interface {
	Execute(ctx context.Context, input map[string]any) (string, error)
	Description() string
}

// Gateway is a registry of capability handlers. Registration happens at
// construction time; dispatch is read-only and safe for concurrent use
// after that.
type Gateway struct {
	handlers map[string]Handler
}

// NewGateway creates an empty gateway.
func NewGateway() *Gateway {
	return &Gateway{handlers: make(map[string]Handler)}
}

// Register adds a handler under name. Duplicate names are a
// construction-time error, not a runtime one.
func (g *Gateway) Register(name string, h Handler) error {
	if _, exists := g.handlers[name]; exists {
		return eris.Wrapf(ErrDuplicateCapability, "tool: %s", name)
	}
	g.handlers[name] = h
	zap.L().Debug("capability registered", zap.String("capability", name))
	return nil
}

// Invoke dispatches input to the named handler and returns its
// observation. Unregistered names yield ErrUnknownCapability; handler
// failures come back as *CapabilityError.
func (g *Gateway) Invoke(ctx context.Context, name string, input map[string]any) (string, error) {
	h, ok := g.handlers[name]
	if !ok {
		return "", eris.Wrapf(ErrUnknownCapability, "tool: %s (available: %s)", name, strings.Join(g.Names(), ", "))
	}

	obs, err := h.Execute(ctx, input)
	if err != nil {
		return "", &CapabilityError{Capability: name, Err: err}
	}
	return obs, nil
}

// Names returns the registered capability names, sorted.
func (g *Gateway) Names() []string {
	names := make([]string, 0, len(g.handlers))
	for name := range g.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders one line per capability for inclusion in prompts.
func (g *Gateway) Describe() string {
	var b strings.Builder
	for _, name := range g.Names() {
		b.WriteString(g.handlers[name].Description())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// input helpers shared by the built-in handlers

func stringArg(input map[string]any, key string) (string, error) {
	v, ok := input[key]
	if !ok {
		return "", eris.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", eris.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func floatArg(input map[string]any, key string) (float64, error) {
	v, ok := input[key]
	if !ok {
		return 0, eris.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, eris.Errorf("argument %q must be a number", key)
	}
}
