package binding

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wippyai/bindcore/errors"
)

// Cache shares binding results between callers. It holds one reference per
// entry and hands every caller a reference of its own, so a result evicted
// from the cache lives on until its last caller releases it.
//
// Concurrent misses for the same file bind it once.
type Cache struct {
	binder  *Binder
	metrics *Metrics
	lru     *simplelru.LRU
	group   singleflight.Group
	evicted []*Result
	mu      sync.Mutex
	closed  bool
}

// NewCache creates a cache over b that keeps at most size results alive.
func NewCache(b *Binder, size int) (*Cache, error) {
	if size <= 0 {
		return nil, errors.InvalidInput(errors.PhaseCache, "cache size must be positive")
	}
	c := &Cache{
		binder:  b,
		metrics: b.metrics,
	}
	l, err := simplelru.NewLRU(size, c.onEvict)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCache, errors.KindInvalidInput, err, "create lru")
	}
	c.lru = l
	return c, nil
}

// Get returns the result for name with one reference owned by the caller.
func (c *Cache) Get(ctx context.Context, name string) (*Result, error) {
	path, err := c.binder.Resolve(name)
	if err != nil {
		return nil, err
	}

	r, err := c.acquire(path)
	if err != nil || r != nil {
		if r != nil {
			c.metrics.hit()
		}
		return r, err
	}
	c.metrics.miss()

	for {
		_, err, _ := c.group.Do(path, func() (any, error) {
			return nil, c.load(ctx, name, path)
		})
		if err != nil {
			return nil, err
		}

		// The entry can be evicted between load and acquire; bind again then.
		r, err := c.acquire(path)
		if err != nil || r != nil {
			return r, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// Remove drops the cache's reference to the result for name.
func (c *Cache) Remove(name string) bool {
	path, err := c.binder.Resolve(name)
	if err != nil {
		return false
	}
	c.mu.Lock()
	ok := c.lru.Remove(path)
	c.unlockAndRelease()
	return ok
}

// Purge drops every reference the cache holds.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.lru.Purge()
	c.unlockAndRelease()
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Close purges the cache and rejects further lookups.
func (c *Cache) Close() error {
	c.mu.Lock()
	c.closed = true
	c.lru.Purge()
	c.unlockAndRelease()
	return nil
}

func (c *Cache) acquire(path string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, errors.Closed(errors.PhaseCache, "cache")
	}
	v, ok := c.lru.Get(path)
	if !ok {
		return nil, nil
	}
	r := v.(*Result)
	r.Acquire()
	return r, nil
}

func (c *Cache) load(ctx context.Context, name, path string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.Closed(errors.PhaseCache, "cache")
	}
	if c.lru.Contains(path) {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	r, err := c.binder.BindFile(ctx, name, path)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed || c.lru.Contains(path) {
		closed := c.closed
		c.mu.Unlock()
		r.Release()
		if closed {
			return errors.Closed(errors.PhaseCache, "cache")
		}
		return nil
	}
	// The cache keeps the reference Bind returned.
	c.lru.Add(path, r)
	c.unlockAndRelease()
	return nil
}

// onEvict runs under c.mu; the references are released after unlocking so
// teardown never runs while the cache is locked.
func (c *Cache) onEvict(key, value any) {
	c.evicted = append(c.evicted, value.(*Result))
}

func (c *Cache) unlockAndRelease() {
	evicted := c.evicted
	c.evicted = nil
	c.mu.Unlock()

	for _, r := range evicted {
		c.metrics.evicted()
		Logger().Debug("cache reference released", zap.String("module", r.Name()))
		r.Release()
	}
}
