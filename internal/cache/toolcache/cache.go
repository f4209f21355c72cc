// Package toolcache stores tool observations for a single Session, keyed by
// tool name and canonicalised parameters.
package toolcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/gowebpki/jcs"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize bounds the number of distinct calls remembered per Session.
const DefaultSize = 256

// Key returns tool + ":" + sha256(JCS(params)). Parameters that differ only
// in key order or whitespace map to the same key. Empty params are "{}".
func Key(tool string, params []byte) (string, error) {
	if len(params) == 0 {
		params = []byte("{}")
	}
	canonical, err := jcs.Transform(params)
	if err != nil {
		return "", fmt.Errorf("toolcache: canonicalise %s params: %w", tool, err)
	}
	sum := sha256.Sum256(canonical)
	return tool + ":" + hex.EncodeToString(sum[:]), nil
}

// Cache is a bounded LRU of observations. It is owned by one Session and
// must not be shared across Sessions.
type Cache[V any] struct {
	entries *lru.Cache[string, V]
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache holding at most size entries (DefaultSize when size <= 0).
func New[V any](size int) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, V](size)
	if err != nil {
		panic(err) // only fails for non-positive sizes
	}
	return &Cache[V]{entries: c}
}

// Get looks up a prior observation.
func (c *Cache[V]) Get(tool string, params []byte) (V, bool) {
	var zero V
	key, err := Key(tool, params)
	if err != nil {
		c.misses.Add(1)
		return zero, false
	}
	v, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put records an observation. Params that are not valid JSON are not cached.
func (c *Cache[V]) Put(tool string, params []byte, v V) {
	key, err := Key(tool, params)
	if err != nil {
		return
	}
	c.entries.Add(key, v)
}

func (c *Cache[V]) Len() int { return c.entries.Len() }
func (c *Cache[V]) Hits() int64 { return c.hits.Load() }
func (c *Cache[V]) Misses() int64 { return c.misses.Load() }
