package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Rule maps a prompt substring to a canned reply.
type Rule struct {
	Contains string
	Reply    string
}

// ScriptedClient is a deterministic offline Client. Prompts are matched
// against rules in order; the first match wins. Useful for dry runs of
// the harness and as a test double for the controller.
type ScriptedClient struct {
	mu      sync.Mutex
	rules   []Rule
	defResp string
	calls   int

	// FailFirst, when positive, makes that many leading calls fail with
	// failErr before any rule matching happens.
	failFirst int
	failErr   error
}

// NewScripted creates a ScriptedClient with the given default reply.
func NewScripted(defaultReply string) *ScriptedClient {
	if defaultReply == "" {
		defaultReply = "scripted reply"
	}
	return &ScriptedClient{defResp: defaultReply}
}

// WithRule appends a substring-match rule.
func (c *ScriptedClient) WithRule(contains, reply string) *ScriptedClient {
	c.rules = append(c.rules, Rule{Contains: contains, Reply: reply})
	return c
}

// FailFirst makes the first n calls return err.
func (c *ScriptedClient) FailFirst(n int, err error) *ScriptedClient {
	c.failFirst = n
	c.failErr = err
	return c
}

// Calls reports how many times Complete has been invoked.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *ScriptedClient) Complete(ctx context.Context, prompt string, _ Options) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()

	if c.failErr != nil && n <= c.failFirst {
		return nil, c.failErr
	}

	start := time.Now()
	reply := c.defResp
	for _, r := range c.rules {
		if strings.Contains(prompt, r.Contains) {
			reply = r.Reply
			break
		}
	}

	return &Completion{
		Text:             reply,
		PromptTokens:     int64(len(strings.Fields(prompt))),
		CompletionTokens: int64(len(strings.Fields(reply))),
		LatencyMS:        float64(time.Since(start)) / float64(time.Millisecond),
	}, nil
}

// EchoReply formats a reply that surfaces the prompt, mirroring what a
// trivial model would do. Handy for smoke tests.
func EchoReply(prompt string) string {
	if len(prompt) > 50 {
		prompt = prompt[:50]
	}
	return fmt.Sprintf("scripted response to: %s", prompt)
}
