package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify_ExplicitClass(t *testing.T) {
	err := NewTransientError(errors.New("too many requests"), ClassRateLimited, 429)
	if got := Classify(err); got != ClassRateLimited {
		t.Errorf("expected rate_limited, got %s", got)
	}
	if !IsTransient(err) {
		t.Error("expected transient")
	}
}

func TestClassify_WrappedTransient(t *testing.T) {
	inner := NewTransientError(errors.New("upstream hiccup"), ClassTransport, 502)
	wrapped := fmt.Errorf("model call: %w", inner)
	if got := Classify(wrapped); got != ClassTransport {
		t.Errorf("expected transport, got %s", got)
	}
}

func TestClassify_DeadlineExceeded(t *testing.T) {
	if got := Classify(context.DeadlineExceeded); got != ClassTimeout {
		t.Errorf("expected timeout, got %s", got)
	}
}

func TestClassify_Heuristics(t *testing.T) {
	cases := []struct {
		msg  string
		want FailureClass
	}{
		{"connection reset by peer", ClassTransport},
		{"read tcp: i/o timeout", ClassTimeout},
		{"api rate limit exceeded", ClassRateLimited},
		{"overloaded_error: try again later", ClassRateLimited},
		{"invalid model name", ClassInvalid},
	}
	for _, tc := range cases {
		if got := Classify(errors.New(tc.msg)); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.msg, got, tc.want)
		}
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error must not be transient")
	}
}

func TestClassForHTTPStatus(t *testing.T) {
	cases := map[int]FailureClass{
		429: ClassRateLimited,
		408: ClassTimeout,
		504: ClassTimeout,
		500: ClassTransport,
		529: ClassTransport,
		400: ClassInvalid,
		404: ClassInvalid,
	}
	for code, want := range cases {
		if got := ClassForHTTPStatus(code); got != want {
			t.Errorf("ClassForHTTPStatus(%d) = %s, want %s", code, got, want)
		}
	}
}
