package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfAndIs(t *testing.T) {
	base := errors.New("429")
	inner := E(ModelUnavailable, "llm.complete", base)
	outer := E(GenerationFailure, "generation", inner)

	assert.Equal(t, GenerationFailure, KindOf(outer))
	assert.True(t, Is(outer, ModelUnavailable))
	assert.True(t, Is(outer, GenerationFailure))
	assert.False(t, Is(outer, BudgetExhausted))
	assert.ErrorIs(t, outer, base)
}

func TestUnclassified(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", errors.New("plain"))
	assert.Equal(t, Kind(""), KindOf(err))
	assert.False(t, Is(err, ToolFailure))
	assert.False(t, Is(nil, ToolFailure))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "research: budget_exhausted", E(BudgetExhausted, "research", nil).Error())
	require.Equal(t, "tool_failure: boom", E(ToolFailure, "", errors.New("boom")).Error())
	require.Equal(t, "probe: tool_failure: boom", E(ToolFailure, "probe", errors.New("boom")).Error())
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(E(ModelUnavailable, "x", nil)))
	assert.False(t, Retryable(E(BudgetExhausted, "x", nil)))
	assert.False(t, Retryable(errors.New("x")))
}
