package cost

import "testing"

func TestCompletion(t *testing.T) {
	c := NewCalculator(Rates{Models: map[string]ModelRate{
		"test-model": {Input: 2.00, Output: 10.00},
	}})

	got := c.Completion("test-model", 1_000_000, 500_000)
	want := 2.00 + 5.00
	if got != want {
		t.Errorf("Completion = %f, want %f", got, want)
	}
}

func TestCompletion_UnknownModel(t *testing.T) {
	c := NewCalculator(DefaultRates())
	if got := c.Completion("nonexistent", 1000, 1000); got != 0 {
		t.Errorf("unknown model cost = %f, want 0", got)
	}
}

func TestDefaultRates_Coverage(t *testing.T) {
	rates := DefaultRates()
	if len(rates.Models) == 0 {
		t.Fatal("default rates are empty")
	}
	for name, r := range rates.Models {
		if r.Input <= 0 || r.Output <= 0 {
			t.Errorf("%s has non-positive pricing: %+v", name, r)
		}
	}
}
