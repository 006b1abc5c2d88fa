// Package scoring turns (expected, actual) answer pairs into score
// records. Scorers are pure and deterministic.
package scoring

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/agent-eval/internal/model"
)

// Scorer methods.
const (
	MethodExact      = "exact"
	MethodNormalized = "normalized"
	MethodContains   = "contains"
)

// Scorer compares an actual answer to an optional expected one. A nil
// expected means no ground truth; the result is nil rather than a zero
// score.
type Scorer interface {
	Method() string
	Score(expected *string, actual string) *model.ScoreResult
}

// New returns the scorer for a method name.
func New(method string) (Scorer, error) {
	switch method {
	case MethodExact:
		return ExactMatch{}, nil
	case MethodNormalized:
		return NormalizedMatch{}, nil
	case MethodContains:
		return BinaryContainment{}, nil
	default:
		return nil, eris.Errorf("scoring: unknown method %q", method)
	}
}

// ExactMatch scores 1.0 only for byte-for-byte equality.
type ExactMatch struct{}

func (ExactMatch) Method() string { return MethodExact }

func (ExactMatch) Score(expected *string, actual string) *model.ScoreResult {
	if expected == nil {
		return nil
	}
	matched := *expected == actual
	return result(MethodExact, matched, map[string]string{
		"expected": *expected,
		"actual":   actual,
	})
}

// NormalizedMatch case-folds, collapses whitespace, and strips
// punctuation from both sides before comparing.
type NormalizedMatch struct{}

func (NormalizedMatch) Method() string { return MethodNormalized }

func (NormalizedMatch) Score(expected *string, actual string) *model.ScoreResult {
	if expected == nil {
		return nil
	}
	ne, na := Normalize(*expected), Normalize(actual)
	matched := ne == na
	return result(MethodNormalized, matched, map[string]string{
		"normalized_expected": ne,
		"normalized_actual":   na,
	})
}

// BinaryContainment scores 1.0 when the normalized expected answer is a
// substring of the normalized actual answer.
type BinaryContainment struct{}

func (BinaryContainment) Method() string { return MethodContains }

func (BinaryContainment) Score(expected *string, actual string) *model.ScoreResult {
	if expected == nil {
		return nil
	}
	ne, na := Normalize(*expected), Normalize(actual)
	matched := ne != "" && strings.Contains(na, ne)
	return result(MethodContains, matched, map[string]string{
		"normalized_expected": ne,
	})
}

func result(method string, matched bool, details map[string]string) *model.ScoreResult {
	score := 0.0
	if matched {
		score = 1.0
	}
	return &model.ScoreResult{
		Score:   score,
		Matched: matched,
		Method:  method,
		Details: details,
	}
}

// Normalize case-folds text, replaces punctuation with spaces, and
// collapses runs of whitespace.
func Normalize(s string) string {
	// Caser carries internal state, so build one per call.
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
