package cache

import (
	"context"
	"errors"
)

// based on github.com/kittpat1413/go-common/framework/cache/cache.go

var ErrCacheMiss = errors.New("cache miss")

// Freshness tells whether a cached value is within its TTL
type Freshness int

const (
	Fresh Freshness = iota
	Stale
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}

type Cache[K comparable, V any] interface {
	// Get returns ErrCacheMiss if there is no entry at all.
	// Expired entries are returned with Stale.
	Get(ctx context.Context, key K) (*V, Freshness, error)
	Put(ctx context.Context, key K, value *V)
	Invalidate(ctx context.Context, key K)
	Len() int
}
