package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// FailureClass categorizes a model-call failure for retry decisions.
type FailureClass string

const (
	ClassRateLimited FailureClass = "rate_limited"
	ClassTimeout     FailureClass = "timeout"
	ClassTransport   FailureClass = "transport"
	ClassInvalid     FailureClass = "invalid_request"
)

// Retryable reports whether this failure class is safe to retry.
func (c FailureClass) Retryable() bool {
	return c == ClassRateLimited || c == ClassTimeout || c == ClassTransport
}

// TransientError wraps an error that is safe to retry (rate limit,
// timeout, transport fault).
type TransientError struct {
	Err        error
	Class      FailureClass
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with its failure class
// and an optional HTTP status code.
func NewTransientError(err error, class FailureClass, statusCode int) *TransientError {
	return &TransientError{Err: err, Class: class, StatusCode: statusCode}
}

// Classify maps an error to a FailureClass. Errors with no explicit
// class fall back to network-shape heuristics; anything unrecognized is
// treated as invalid (non-retryable).
func Classify(err error) FailureClass {
	var te *TransientError
	if errors.As(err, &te) {
		return te.Class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return ClassTransport
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "overloaded"):
		return ClassRateLimited
	case strings.Contains(msg, "i/o timeout"), strings.Contains(msg, "tls handshake timeout"):
		return ClassTimeout
	}

	transportPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transportPatterns {
		if strings.Contains(msg, p) {
			return ClassTransport
		}
	}

	return ClassInvalid
}

// IsTransient returns true if the error (or any error in its chain)
// classifies as a retryable failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable()
}

// ClassForHTTPStatus maps an HTTP status code from a model API to a
// failure class. Codes outside the transient set map to ClassInvalid.
func ClassForHTTPStatus(statusCode int) FailureClass {
	switch statusCode {
	case 429:
		return ClassRateLimited
	case 408, 504:
		return ClassTimeout
	case 500, 502, 503, 529:
		return ClassTransport
	default:
		return ClassInvalid
	}
}
