package cache

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(100)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", []byte("hello"))
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), v)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(5), c.Size())
}

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU(10)

	c.Set("a", []byte("1234"))
	c.Set("b", []byte("1234"))
	// Touch a so b becomes the eviction candidate.
	_, _ = c.Get("a")
	c.Set("c", []byte("1234"))

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(8), c.Size())
}

func TestLRU_Update(t *testing.T) {
	c := NewLRU(10)

	c.Set("a", []byte("12"))
	c.Set("b", []byte("12"))
	c.Set("a", []byte("12345678"))

	// Growing a pushed b out.
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(8), c.Size())
}

func TestLRU_Oversized(t *testing.T) {
	c := NewLRU(4)
	c.Set("big", []byte("12345"))
	assert.Equal(t, 0, c.Len())

	disabled := NewLRU(0)
	disabled.Set("a", []byte("x"))
	_, ok := disabled.Get("a")
	assert.False(t, ok)
}

func TestLRU_Invalidate(t *testing.T) {
	c := NewLRU(100)
	c.Set("refs/a", []byte("a"))
	c.Set("refs/b", []byte("b"))
	c.Set("groups/g", []byte("g"))

	c.Invalidate(func(key string) bool { return strings.HasPrefix(key, "refs/") })
	assert.Equal(t, 1, c.Len())

	c.Remove("groups/g")
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Size())
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU(64)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i))
			for range 100 {
				c.Set(key, []byte("01234567"))
				_, _ = c.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), int64(64))
}
