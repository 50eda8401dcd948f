package rustc

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/albertocavalcante/go-rustversion/version"
)

// Cache remembers the version of each compiler it has probed. Concurrent
// lookups for the same compiler share one run. Only successful probes are
// stored; a failure is returned to every waiter of that run and the next
// lookup tries again.
type Cache struct {
	mu    sync.RWMutex
	items map[string]version.Version
	group singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{items: make(map[string]version.Version)}
}

// Default is the process-wide cache.
var Default = NewCache()

func cacheKey(p Probe) string {
	return p.flag() + "\x00" + p.path()
}

// Version returns the cached version for p, running the probe on a miss.
func (c *Cache) Version(ctx context.Context, p Probe) (version.Version, error) {
	key := cacheKey(p)
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Another caller may have stored the result while we waited.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := p.Run(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.items[key] = v
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return version.Version{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return version.Version{}, res.Err
		}
		return res.Val.(version.Version), nil
	}
}

func (c *Cache) lookup(key string) (version.Version, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.items[key]
	return v, ok
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]version.Version)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
