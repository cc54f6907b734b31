// Package ring implements a fixed-capacity ring buffer that evicts the
// oldest element on overflow. It backs bounded per-signal history.
package ring

// Buffer is a bounded FIFO over T. The zero value is not usable; use New.
//
type Buffer[T any] struct {
	data  []T
	head  int // index of the oldest element
	count int
}

// New returns a buffer holding at most capacity elements. It panics if
// capacity is not positive.
//
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be > 0")
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Push appends v, evicting the oldest element if the buffer is full.
//
func (b *Buffer[T]) Push(v T) {
	if b.count < len(b.data) {
		b.data[(b.head+b.count)%len(b.data)] = v
		b.count++
		return
	}
	b.data[b.head] = v
	b.head = (b.head + 1) % len(b.data)
}

// Len returns the number of buffered elements.
//
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the buffer capacity.
//
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Last returns the most recently pushed element, or the zero value and
// false when the buffer is empty.
//
func (b *Buffer[T]) Last() (T, bool) {
	var zero T
	if b.count == 0 {
		return zero, false
	}
	return b.data[(b.head+b.count-1)%len(b.data)], true
}

// Snapshot returns the buffered elements oldest first. The returned slice
// is a copy.
//
func (b *Buffer[T]) Snapshot() []T {
	out := make([]T, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(b.head+i)%len(b.data)]
	}
	return out
}
