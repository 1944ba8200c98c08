package querycache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"quickbidz-storefront/utils"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a read stays fresh.
const DefaultTTL = 30 * time.Second

// Loader fetches the value for a key on a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// Invalidator drops cached reads after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context, prefixes ...string) error
}

// Cache de-duplicates concurrent reads of the same key and keeps results
// fresh for a TTL. Store failures degrade to a miss and never fail a read.
type Cache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group

	// generation moves on every invalidation. A load that started before an
	// invalidation does not write its result back.
	generation atomic.Uint64
}

var _ Invalidator = (*Cache)(nil)

// New creates a cache over store. A non-positive ttl uses DefaultTTL.
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// Fetch returns the cached value for key or runs load once for all
// concurrent callers asking for the same key. The shared load runs detached
// from any one caller's cancellation; each caller stops waiting when its own
// ctx is done.
func (c *Cache) Fetch(ctx context.Context, key string, load Loader) ([]byte, error) {
	if value, ok := c.lookup(ctx, key); ok {
		return value, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if value, ok := c.lookup(loadCtx, key); ok {
			return value, nil
		}

		gen := c.generation.Load()
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() == gen {
			if err := c.store.Set(loadCtx, key, value, c.ttl); err != nil {
				utils.Warn("Query cache write failed", map[string]any{"key": key, "error": err.Error()})
			}
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("querycache: load %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("querycache: load %s: %w", key, res.Err)
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate drops every key under each prefix.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) error {
	c.generation.Add(1)
	for _, prefix := range prefixes {
		if err := c.store.DeletePrefix(ctx, prefix); err != nil {
			return fmt.Errorf("querycache: invalidate %s: %w", prefix, err)
		}
	}
	return nil
}

func (c *Cache) lookup(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		utils.Warn("Query cache read failed", map[string]any{"key": key, "error": err.Error()})
		return nil, false
	}
	return value, ok
}
