package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache(2)
	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, found := c.Get("b")
	assert.False(t, found)
	v, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheGetOrCompute(t *testing.T) {
	c := NewLRUCache(4)
	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", compute)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)

	_, err := c.GetOrCompute("bad", func() (interface{}, error) { return nil, errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, 1, c.Size(), "errors are not cached")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestLRUCacheClear(t *testing.T) {
	c := NewLRUCache(0)
	c.Put("a", 1)
	c.Clear()
	assert.Equal(t, CacheStats{}, c.Stats())
}
