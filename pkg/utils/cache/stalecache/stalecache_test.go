//nolint:funlen // ok for tests
package stalecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/f1-livetiming-go/pkg/utils/cache"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestStaleCache(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 5, 26, 13, 0, 0, 0, time.UTC)}
	c := New[string, []byte](
		WithTTL[string, []byte](10*time.Second),
		WithClock[string, []byte](clock.now))

	_, _, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	data := []byte("[1,2,3]")
	c.Put(ctx, "a", &data)

	got, fresh, err := c.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, cache.Fresh, fresh)
	assert.Equal(t, data, *got)

	clock.advance(9 * time.Second)
	_, fresh, _ = c.Get(ctx, "a")
	assert.Equal(t, cache.Fresh, fresh)

	clock.advance(time.Second)
	got, fresh, err = c.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, cache.Stale, fresh)
	assert.Equal(t, data, *got, "stale entries are kept")

	c.Invalidate(ctx, "a")
	_, _, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestStaleCache_MaxAge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 5, 26, 13, 0, 0, 0, time.UTC)}
	c := New[string, int](
		WithTTL[string, int](time.Second),
		WithMaxAge[string, int](time.Minute),
		WithClock[string, int](clock.now))
	v := 42
	c.Put(ctx, "k", &v)
	clock.advance(30 * time.Second)
	_, fresh, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, cache.Stale, fresh)

	clock.advance(31 * time.Second)
	_, _, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
