package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)
	return cfg
}

func TestNewSessionsAreIndependent(t *testing.T) {
	cfg := testConfig(t)
	a, err := New("earthquake map", cfg)
	require.NoError(t, err)
	b, err := New("flood dashboard", cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	require.Equal(t, budget.OK, a.Tracker.Consume(budget.ModelCall, 1))
	assert.Equal(t, cfg.Limits.MaxModelCalls, b.Tracker.Remaining(budget.ModelCall))
	assert.NotSame(t, a.Cache, b.Cache)
}

func TestNewRejectsBadInput(t *testing.T) {
	cfg := testConfig(t)
	_, err := New("   ", cfg)
	assert.ErrorIs(t, err, ErrEmptyRequest)

	cfg.Limits.MaxIterations = 0
	_, err = New("earthquake map", cfg)
	assert.Error(t, err)
}
