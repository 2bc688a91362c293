package openf1

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestWindowLimiter(t *testing.T) {
	clock := newFakeClock()
	w := newWindowLimiter(3, time.Minute, clock.now)
	for i := 0; i < 3; i++ {
		assert.Assert(t, w.Allow())
	}
	assert.Assert(t, !w.Allow())
	assert.Assert(t, w.Engaged())

	clock.advance(59 * time.Second)
	assert.Assert(t, !w.Allow())

	clock.advance(time.Second)
	assert.Assert(t, !w.Engaged())
	assert.Assert(t, w.Allow())
	assert.Equal(t, w.Count(), 1)

	w.Reset()
	assert.Equal(t, w.Count(), 0)
}
