// Package llm is the model inference client used by every phase.
//
// Providers implement Client and only make the API call. Cross-cutting
// concerns are layered with Middleware; per-session metering and retries
// live in Metered.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Purpose selects the output-token bucket for a call.
type Purpose string

const (
	PurposeReasoning  Purpose = "reasoning"
	PurposeGeneration Purpose = "generation"
	PurposeRepair     Purpose = "repair"
	PurposePlanning   Purpose = "planning"
)

// Request is one completion request.
type Request struct {
	Purpose         Purpose
	System          string
	Prompt          string
	MaxOutputTokens int
}

// Completion is the provider's text answer plus usage.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client is a single-call request/response wrapper around a provider.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (Completion, error)
	Close() error
}

var (
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrInvalidJSON   = errors.New("llm: invalid json")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// RateLimitError is returned when the provider asks the caller to slow down.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err == nil {
		return "llm: rate limited"
	}
	return fmt.Sprintf("llm: rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err carries a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// EstimateTokens is a rough count used when a provider reports no usage.
func EstimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
