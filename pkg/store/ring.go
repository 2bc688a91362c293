package store

// ring is a fixed capacity buffer overwriting the oldest entry
type ring[T any] struct {
	buf  []T
	next int
	full bool
}

func newRing[T any](size int) *ring[T] {
	return &ring[T]{buf: make([]T, size)}
}

func (r *ring[T]) push(v T) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring[T]) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// values returns the entries from oldest to newest
func (r *ring[T]) values() []T {
	if !r.full {
		return append([]T(nil), r.buf[:r.next]...)
	}
	ret := make([]T, 0, len(r.buf))
	ret = append(ret, r.buf[r.next:]...)
	return append(ret, r.buf[:r.next]...)
}

func (r *ring[T]) last() (T, bool) {
	var zero T
	if r.len() == 0 {
		return zero, false
	}
	return r.buf[(r.next-1+len(r.buf))%len(r.buf)], true
}
