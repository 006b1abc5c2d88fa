package llm

import (
	"context"
	"errors"
	"testing"
)

func TestScripted_RuleOrder(t *testing.T) {
	c := NewScripted("default").
		WithRule("alpha", "first").
		WithRule("alpha beta", "second")

	got, err := c.Complete(context.Background(), "alpha beta gamma", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "first" {
		t.Errorf("Text = %q, first matching rule must win", got.Text)
	}
}

func TestScripted_DefaultReply(t *testing.T) {
	c := NewScripted("fallback").WithRule("never", "no")
	got, err := c.Complete(context.Background(), "unmatched prompt", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "fallback" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.PromptTokens == 0 {
		t.Error("prompt tokens not counted")
	}
}

func TestScripted_FailFirst(t *testing.T) {
	boom := errors.New("synthetic outage")
	c := NewScripted("ok").FailFirst(2, boom)

	for i := 0; i < 2; i++ {
		if _, err := c.Complete(context.Background(), "p", Options{}); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want synthetic outage", i+1, err)
		}
	}
	got, err := c.Complete(context.Background(), "p", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Text != "ok" {
		t.Errorf("Text = %q after outage window", got.Text)
	}
	if c.Calls() != 3 {
		t.Errorf("Calls = %d, want 3", c.Calls())
	}
}

func TestScripted_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScripted("ok").Complete(ctx, "p", Options{}); err == nil {
		t.Fatal("expected context error")
	}
}
