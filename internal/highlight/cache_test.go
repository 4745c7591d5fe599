package highlight

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRenderer wraps a Renderer and counts how many times the inner
// render actually runs — the observable difference between hit and miss.
type countingRenderer struct {
	inner Renderer
	mu    sync.Mutex
	calls int
}

func (c *countingRenderer) Render(code, language, style string, lineNumbers bool) ([]byte, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Render(code, language, style, lineNumbers)
}

func (c *countingRenderer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestCache_MemoizesIdenticalInput(t *testing.T) {
	counting := &countingRenderer{inner: New()}
	cache, err := NewCache(counting, 8)
	require.NoError(t, err)

	first, err := cache.Render("print(1)", "python", "friendly", true)
	require.NoError(t, err)
	second, err := cache.Render("print(1)", "python", "friendly", true)
	require.NoError(t, err)

	assert.Equal(t, 1, counting.count(), "second call must be served from the cache")
	assert.True(t, bytes.Equal(first, second))
}

func TestCache_KeyIsFullTuple(t *testing.T) {
	counting := &countingRenderer{inner: New()}
	cache, err := NewCache(counting, 8)
	require.NoError(t, err)

	_, err = cache.Render("print(1)", "python", "friendly", true)
	require.NoError(t, err)

	// Flipping any one tuple component must miss.
	_, err = cache.Render("print(1)", "python", "friendly", false)
	require.NoError(t, err)
	_, err = cache.Render("print(2)", "python", "friendly", true)
	require.NoError(t, err)
	_, err = cache.Render("print(1)", "python", "monokai", true)
	require.NoError(t, err)

	assert.Equal(t, 4, counting.count(), "each distinct tuple must render once")
}

func TestCache_ErrorsNotCached(t *testing.T) {
	counting := &countingRenderer{inner: New()}
	cache, err := NewCache(counting, 8)
	require.NoError(t, err)

	_, err = cache.Render("x", "klingon", "friendly", false)
	require.Error(t, err)
	_, err = cache.Render("x", "klingon", "friendly", false)
	require.Error(t, err)

	assert.Equal(t, 2, counting.count(), "failed renders must not be memoized")
}
