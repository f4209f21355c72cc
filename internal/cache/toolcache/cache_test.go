package toolcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIgnoresOrderAndWhitespace(t *testing.T) {
	a, err := Key("catalog_sampler", []byte(`{"collection":"quakes","limit":5}`))
	require.NoError(t, err)
	b, err := Key("catalog_sampler", []byte(`{ "limit": 5, "collection": "quakes" }`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Key("api_probe", []byte(`{"collection":"quakes","limit":5}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "tool name is part of the key")
}

func TestKeyEmptyParams(t *testing.T) {
	a, err := Key("t", nil)
	require.NoError(t, err)
	b, err := Key("t", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKeyInvalidJSON(t *testing.T) {
	_, err := Key("t", []byte(`{`))
	require.Error(t, err)
}

func TestCacheGetPut(t *testing.T) {
	c := New[string](2)
	_, ok := c.Get("t", []byte(`{"q":1}`))
	assert.False(t, ok)

	c.Put("t", []byte(`{"q":1}`), "one")
	v, ok := c.Get("t", []byte(`{ "q" : 1 }`))
	require.True(t, ok)
	assert.Equal(t, "one", v)
	assert.EqualValues(t, 1, c.Hits())
	assert.EqualValues(t, 1, c.Misses())

	c.Put("t", []byte(`{`), "bad")
	assert.Equal(t, 1, c.Len())
}

func TestCacheEvicts(t *testing.T) {
	c := New[int](2)
	c.Put("t", []byte(`{"n":1}`), 1)
	c.Put("t", []byte(`{"n":2}`), 2)
	c.Put("t", []byte(`{"n":3}`), 3)
	_, ok := c.Get("t", []byte(`{"n":1}`))
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := New[string](0), New[string](0)
	a.Put("t", []byte(`{}`), "x")
	_, ok := b.Get("t", []byte(`{}`))
	assert.False(t, ok)
}
