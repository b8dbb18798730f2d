package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/marketapi/internal/cache"
)

func TestTTL_SetGet(t *testing.T) {
	c := cache.NewTTL[int](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 42)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTTL_Expiry(t *testing.T) {
	c := cache.NewTTL[string](10 * time.Millisecond)
	c.Set("a", "x")

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok, "expired entry must not be readable")
	assert.Equal(t, 1, c.Len(), "lazy expiry leaves the entry in place")

	removed := c.Evict()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, c.Len())
}

func TestTTL_SetRefreshesExpiry(t *testing.T) {
	c := cache.NewTTL[string](30 * time.Millisecond)
	c.Set("a", "x")

	time.Sleep(20 * time.Millisecond)
	c.Set("a", "y")
	time.Sleep(20 * time.Millisecond)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestTTL_DeleteAndClear(t *testing.T) {
	c := cache.NewTTL[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestTTL_EvictKeepsLiveEntries(t *testing.T) {
	c := cache.NewTTL[int](time.Minute)
	c.Set("live", 1)

	assert.Equal(t, 0, c.Evict())
	v, ok := c.Get("live")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := cache.NewTTL[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", n)
				c.Get("shared")
				c.Evict()
			}
		}(i)
	}
	wg.Wait()

	_, ok := c.Get("shared")
	assert.True(t, ok)
}
