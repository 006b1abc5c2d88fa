package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeHandler struct {
	obs string
	err error
}

func (f fakeHandler) Execute(context.Context, map[string]any) (string, error) {
	return f.obs, f.err
}

func (f fakeHandler) Description() string { return "fake: does nothing" }

func TestGateway_RegisterDuplicate(t *testing.T) {
	g := NewGateway()
	if err := g.Register("echo", fakeHandler{obs: "hi"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := g.Register("echo", fakeHandler{obs: "again"})
	if !errors.Is(err, ErrDuplicateCapability) {
		t.Fatalf("expected ErrDuplicateCapability, got %v", err)
	}
}

func TestGateway_InvokeUnknown(t *testing.T) {
	g := NewGateway()
	_, err := g.Invoke(context.Background(), "nope", nil)
	if !errors.Is(err, ErrUnknownCapability) {
		t.Fatalf("expected ErrUnknownCapability, got %v", err)
	}
}

func TestGateway_HandlerFailureIsCapabilityError(t *testing.T) {
	g := NewGateway()
	if err := g.Register("boom", fakeHandler{err: errors.New("kaput")}); err != nil {
		t.Fatal(err)
	}

	_, err := g.Invoke(context.Background(), "boom", nil)
	var capErr *CapabilityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapabilityError, got %T: %v", err, err)
	}
	if capErr.Capability != "boom" {
		t.Errorf("capability = %q, want boom", capErr.Capability)
	}
}

func TestGateway_NamesSorted(t *testing.T) {
	g := NewGateway()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := g.Register(name, fakeHandler{}); err != nil {
			t.Fatal(err)
		}
	}
	names := g.Names()
	want := []string{"alpha", "mid", "zeta"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestGateway_Describe(t *testing.T) {
	g, err := NewBuiltinGateway(DefaultBuiltins())
	if err != nil {
		t.Fatal(err)
	}
	desc := g.Describe()
	if !strings.Contains(desc, "calculator:") || !strings.Contains(desc, "clock:") {
		t.Errorf("unexpected description: %q", desc)
	}
}
