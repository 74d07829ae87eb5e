package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache is a small keyed query cache: concurrent loads of the same key are
// collapsed, entries can be invalidated by key prefix, and every known query
// can be refetched at once.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	gens    map[string]uint64
	group   singleflight.Group
	maxAge  time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
	fetch     func(ctx context.Context) (any, error)
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithMaxAge makes entries stale after d. Zero keeps them until invalidated.
func WithMaxAge(d time.Duration) CacheOption {
	return func(c *Cache) { c.maxAge = d }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache constructs an empty Cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		gens:    make(map[string]uint64),
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query returns the cached value for key, loading it with fetch when missing
// or stale. Failed loads are not cached, and neither is a load that was
// invalidated while it was in flight.
func Query[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		return v.(T), nil
	}
	loader := func(ctx context.Context) (any, error) { return fetch(ctx) }
	v, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation(key)
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, gen, value, loader)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if c.maxAge > 0 && c.now().Sub(e.fetchedAt) > c.maxAge {
		return nil, false
	}
	return e.value, true
}

// generation returns the invalidation count of key, registering the key so
// Invalidate can see loads that have not stored anything yet.
func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, ok := c.gens[key]
	if !ok {
		c.gens[key] = 0
	}
	return gen
}

// store records value unless key was invalidated after gen was read.
func (c *Cache) store(key string, gen uint64, value any, fetch func(ctx context.Context) (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		c.logger.Debug("dropping superseded load", zap.String("key", key))
		return
	}
	c.entries[key] = &entry{value: value, fetchedAt: c.now(), fetch: fetch}
}

// Invalidate marks entries stale. A prefix matches its own key and every key
// below it ("documents" matches "documents:7"). The next Query for a stale
// entry goes to the network.
func (c *Cache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.gens {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+":") {
				c.gens[key]++
				if e, ok := c.entries[key]; ok {
					e.stale = true
				}
				break
			}
		}
	}
}

func (c *Cache) markStale(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
}

// RefetchAll reloads every entry the cache has seen. Entries that fail keep
// their previous value and are marked stale; the errors are joined.
func (c *Cache) RefetchAll(ctx context.Context) error {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	gens := make([]uint64, 0, len(c.entries))
	fetches := make([]func(ctx context.Context) (any, error), 0, len(c.entries))
	for key, e := range c.entries {
		keys = append(keys, key)
		gens = append(gens, c.gens[key])
		fetches = append(fetches, e.fetch)
	}
	c.mu.Unlock()

	var errs []error
	for i, key := range keys {
		value, err := fetches[i](ctx)
		if err != nil {
			c.logger.Warn("refetch failed", zap.String("key", key), zap.Error(err))
			c.markStale(key)
			errs = append(errs, fmt.Errorf("refetch %s: %w", key, err))
			continue
		}
		c.store(key, gens[i], value, fetches[i])
	}
	return errors.Join(errs...)
}

// Len returns the number of entries, stale or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
