package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies turn failures into the closed taxonomy callers branch on.
type ErrorKind int

const (
	// KindUnavailable marks transient capability failures (network, provider).
	// Retryable with backoff.
	KindUnavailable ErrorKind = iota
	// KindMalformed marks model output that failed schema validation after the
	// repair attempt. Handled by per-step default policies, not retried blindly.
	KindMalformed
	// KindRejected marks invalid input (empty query, empty or oversized
	// document). Non-retryable; no capability call was made.
	KindRejected
)

// String returns the machine-readable category label.
func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "capability_unavailable"
	case KindMalformed:
		return "capability_malformed_response"
	case KindRejected:
		return "input_rejected"
	default:
		return "unknown"
	}
}

// Error is the single error type the pipelines surface. Op names the
// operation that failed (e.g. "orchestrator.route", "summarizer.chunk").
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether retrying the whole turn can succeed.
func (e *Error) Retryable() bool { return e.Kind == KindUnavailable }

// Unavailable wraps a transient capability failure.
func Unavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, Op: op, Err: err}
}

// Malformed wraps a schema-validation failure of model output.
func Malformed(op string, err error) error {
	return &Error{Kind: KindMalformed, Op: op, Err: err}
}

// Rejected creates an input-rejection error with a descriptive message.
func Rejected(op, msg string) error {
	return &Error{Kind: KindRejected, Op: op, Err: errors.New(msg)}
}

// KindOf extracts the taxonomy kind, defaulting unparented errors to
// KindUnavailable since unknown failures are presumed transient.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// IsRetryable reports whether err (or its cause) is a retryable turn failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return true
}

// IsRejected reports whether err is an input rejection.
func IsRejected(err error) bool { return err != nil && KindOf(err) == KindRejected }
