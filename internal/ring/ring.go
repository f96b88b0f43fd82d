// Package ring provides a fixed-cycle buffer used to rotate per-frame
// resources across frames in flight.
package ring

import (
	"errors"
	"fmt"
)

// ErrCapacity is returned when a ring is built with an unusable capacity.
var ErrCapacity = errors.New("ring: invalid capacity")

// Buffer holds at least Capacity items and selects one of the first
// Capacity items as the current one. The selection only moves on Cycle.
//
// Items past Capacity are never selected by Cycle; callers use them for
// transient entries (staging buffers and similar) appended with Push.
type Buffer[T any] struct {
	items    []T
	capacity int
	current  int
}

// New creates a ring with the given cycle capacity and size. Size is raised
// to capacity when smaller. build is called once per item, in index order;
// a nil build leaves items zeroed.
func New[T any](capacity, size int, build func(i int) (T, error)) (*Buffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	if size < capacity {
		size = capacity
	}

	b := &Buffer[T]{
		items:    make([]T, size),
		capacity: capacity,
	}
	if build == nil {
		return b, nil
	}
	for i := range b.items {
		item, err := build(i)
		if err != nil {
			return nil, fmt.Errorf("creating ring item %d: %w", i, err)
		}
		b.items[i] = item
	}
	return b, nil
}

// Current returns the selected item.
func (b *Buffer[T]) Current() *T {
	return &b.items[b.current]
}

// Next returns the item that becomes current after the next Cycle.
func (b *Buffer[T]) Next() *T {
	return &b.items[(b.current+1)%b.capacity]
}

// Index returns the position of the current item.
func (b *Buffer[T]) Index() int { return b.current }

// Capacity returns the number of items taking part in the cycle.
func (b *Buffer[T]) Capacity() int { return b.capacity }

// Len returns the number of stored items, including transient ones.
func (b *Buffer[T]) Len() int { return len(b.items) }

// At returns the item at position i.
func (b *Buffer[T]) At(i int) *T { return &b.items[i] }

// Items exposes the backing slice. The slice is shared with the ring.
func (b *Buffer[T]) Items() []T { return b.items }

// Cycle advances the current item by one position, wrapping at Capacity.
// When reset is non-nil it is applied to the newly selected item.
func (b *Buffer[T]) Cycle(reset func(*T)) {
	b.current = (b.current + 1) % b.capacity
	if reset != nil {
		reset(&b.items[b.current])
	}
}

// Push appends a transient item after the cycled ones.
func (b *Buffer[T]) Push(v T) {
	b.items = append(b.items, v)
}

// Pop removes the most recently pushed transient item. It never touches the
// cycled items, so it reports false once only Capacity items remain.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T
	last := len(b.items) - 1
	if last < b.capacity {
		return zero, false
	}
	v := b.items[last]
	b.items[last] = zero
	b.items = b.items[:last]
	return v, true
}

// Destroy calls fn on every item in reverse order and empties the ring.
func (b *Buffer[T]) Destroy(fn func(*T)) {
	if fn != nil {
		for i := len(b.items) - 1; i >= 0; i-- {
			fn(&b.items[i])
		}
	}
	b.items = nil
	b.current = 0
}
