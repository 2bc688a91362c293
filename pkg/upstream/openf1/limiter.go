package openf1

import (
	"sync"
	"time"
)

// windowLimiter allows at most limit requests per window.
// The window starts with the first request after the previous one expired.
type windowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	start  time.Time
	count  int
}

func newWindowLimiter(limit int, window time.Duration, now func() time.Time) *windowLimiter {
	return &windowLimiter{limit: limit, window: window, now: now}
}

func (w *windowLimiter) rollover(now time.Time) {
	if now.Sub(w.start) >= w.window {
		w.start = now
		w.count = 0
	}
}

// Allow consumes one request of the current window if available
func (w *windowLimiter) Allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollover(w.now())
	if w.count >= w.limit {
		return false
	}
	w.count++
	return true
}

// Engaged reports whether the current window is exhausted
func (w *windowLimiter) Engaged() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rollover(w.now())
	return w.count >= w.limit
}

func (w *windowLimiter) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.start = w.now()
	w.count = 0
}

func (w *windowLimiter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}
