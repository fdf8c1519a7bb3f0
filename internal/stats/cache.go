package stats

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// cache memoizes read results for a fixed TTL. Concurrent misses on the same
// key share one load.
type cache struct {
	lru   *expirable.LRU[string, any]
	group singleflight.Group
}

func newCache(size int, ttl time.Duration) *cache {
	return &cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

func (c *cache) purge() { c.lru.Purge() }

func cached[T any](ctx context.Context, c *cache, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lru.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		t, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, t)
		return t, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
