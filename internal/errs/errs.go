// Package errs classifies failures that cross component boundaries.
package errs

import (
	"errors"
	"fmt"
)

// Kind names a failure class of the orchestration core.
type Kind string

const (
	ToolFailure              Kind = "tool_failure"
	BudgetExhausted          Kind = "budget_exhausted"
	ModelUnavailable         Kind = "model_unavailable"
	GenerationFailure        Kind = "generation_failure"
	ValidationNonConvergence Kind = "validation_non_convergence"
	Cancelled                Kind = "cancelled"
)

// Error carries a Kind, the failing operation and the cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error. A nil cause is allowed; the kind alone is the message.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the outermost Kind in err's chain, or "" when unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// Retryable reports whether a retry could plausibly succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case ModelUnavailable, ToolFailure:
		return true
	default:
		return false
	}
}
