package highlight

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheKey is the renderer's full input tuple. Because Render is pure, two
// identical keys always map to identical output — which is exactly what
// makes memoization sound here.
type cacheKey struct {
	code        string
	language    string
	style       string
	lineNumbers bool
}

// Cache memoizes a Renderer with a bounded LRU.
//
// Re-rendering the same snippet on every GET /snippets/{id}/highlight wastes
// CPU on tokenising code that hasn't changed. The hashicorp LRU is safe for
// concurrent use, so Cache needs no locking of its own and can front the
// renderer for all request goroutines at once.
//
// Only successful renders are cached. Errors are cheap to recompute and
// should stay visible in logs every time they happen.
type Cache struct {
	inner   Renderer
	entries *lru.Cache[cacheKey, []byte]
}

var _ Renderer = (*Cache)(nil)

// NewCache wraps inner with an LRU holding up to size rendered documents.
func NewCache(inner Renderer, size int) (*Cache, error) {
	entries, err := lru.New[cacheKey, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, entries: entries}, nil
}

// Render returns the memoized document for the tuple, rendering on a miss.
//
// The cached byte slice is returned directly, not copied. Callers write it
// to the response and must not mutate it.
func (c *Cache) Render(code, language, style string, lineNumbers bool) ([]byte, error) {
	key := cacheKey{code: code, language: language, style: style, lineNumbers: lineNumbers}

	if out, ok := c.entries.Get(key); ok {
		return out, nil
	}

	out, err := c.inner.Render(code, language, style, lineNumbers)
	if err != nil {
		return nil, err
	}

	c.entries.Add(key, out)
	return out, nil
}
