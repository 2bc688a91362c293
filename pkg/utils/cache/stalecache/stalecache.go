package stalecache

import (
	"context"
	"sync"
	"time"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils/cache"
)

// Entries expire after the configured TTL but are kept as stale fallback.
// With a max age set, stale entries older than that are evicted on access.

type (
	Option[K comparable, V any] func(*config[K, V])
	item[T any]                 struct {
		data    T
		expires time.Time
		stored  time.Time
	}
	config[K comparable, V any] struct {
		ttl    time.Duration
		maxAge time.Duration
		now    func() time.Time
		l      *log.Logger
	}
	staleCache[K comparable, V any] struct {
		mutex  sync.Mutex
		items  map[K]item[*V]
		config *config[K, V]
	}
)

func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.ttl = ttl
	}
}

// WithMaxAge limits how long stale entries are kept. 0 keeps them forever.
func WithMaxAge[K comparable, V any](maxAge time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.maxAge = maxAge
	}
}

func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *config[K, V]) {
		c.now = now
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

func New[K comparable, V any](opts ...Option[K, V]) cache.Cache[K, V] {
	c := &config[K, V]{
		ttl: 10 * time.Second,
		now: time.Now,
		l:   log.Default().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &staleCache[K, V]{
		mutex:  sync.Mutex{},
		items:  make(map[K]item[*V]),
		config: c,
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *staleCache[K, V]) Get(ctx context.Context, key K) (
	*V, cache.Freshness, error,
) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	cacheItem, ok := c.items[key]
	if !ok {
		return nil, cache.Stale, cache.ErrCacheMiss
	}
	now := c.config.now()
	if c.config.maxAge > 0 && now.Sub(cacheItem.stored) > c.config.maxAge {
		c.config.l.Debug("evicting entry", log.Any("key", key))
		delete(c.items, key)
		return nil, cache.Stale, cache.ErrCacheMiss
	}
	if now.Before(cacheItem.expires) {
		return cacheItem.data, cache.Fresh, nil
	}
	return cacheItem.data, cache.Stale, nil
}

func (c *staleCache[K, V]) Put(ctx context.Context, key K, value *V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.config.now()
	c.items[key] = item[*V]{data: value, stored: now, expires: now.Add(c.config.ttl)}
}

func (c *staleCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config.l.Debug("Invalidate", log.Any("key", key))
	delete(c.items, key)
}

func (c *staleCache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}
