package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRistrettoCache_SetGetDelete(t *testing.T) {
	c, err := NewRistrettoCache[[]string](Config{MaxItems: 100, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("categories:1", []string{"Entertainment", "Other"})
	got, ok := c.Get("categories:1")
	require.True(t, ok)
	assert.Equal(t, []string{"Entertainment", "Other"}, got)

	c.Delete("categories:1")
	_, ok = c.Get("categories:1")
	assert.False(t, ok)
}

func TestRistrettoCache_Expires(t *testing.T) {
	c, err := NewRistrettoCache[int](Config{MaxItems: 10, TTL: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	c.Set("k", 42)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRistrettoCache_HoldsMaxItems(t *testing.T) {
	for _, n := range []int64{10, 100, 1000} {
		c, err := NewRistrettoCache[[]string](Config{MaxItems: n, TTL: time.Minute})
		require.NoError(t, err)

		for i := int64(0); i < n; i++ {
			c.Set(fmt.Sprintf("categories:%d", i), []string{"Entertainment", "Productivity", "Other"})
		}

		kept := 0
		for i := int64(0); i < n; i++ {
			if _, ok := c.Get(fmt.Sprintf("categories:%d", i)); ok {
				kept++
			}
		}
		assert.EqualValues(t, n, kept, "max items %d", n)
		c.Close()
	}
}
