package ring

import (
	"errors"
	"testing"
)

func TestNewRejectsZeroCapacity(t *testing.T) {
	if _, err := New[int](0, 3, nil); !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
}

func TestNewBuildsEveryItem(t *testing.T) {
	b, err := New(2, 4, func(i int) (int, error) { return i * 10, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Len() != 4 || b.Capacity() != 2 {
		t.Fatalf("len=%d cap=%d, want 4 and 2", b.Len(), b.Capacity())
	}
	for i := 0; i < b.Len(); i++ {
		if got := *b.At(i); got != i*10 {
			t.Errorf("item %d = %d, want %d", i, got, i*10)
		}
	}
}

func TestNewPropagatesBuildError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(3, 3, func(i int) (int, error) {
		if i == 1 {
			return 0, boom
		}
		return i, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped build error, got %v", err)
	}
}

func TestSizeRaisedToCapacity(t *testing.T) {
	b, err := New[string](3, 1, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Len() != 3 {
		t.Fatalf("len = %d, want 3", b.Len())
	}
}

func TestCycleReturnsToStart(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 5} {
		b, err := New(capacity, capacity, func(i int) (int, error) { return i, nil })
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		start := b.Index()
		for i := 0; i < capacity; i++ {
			b.Cycle(nil)
		}
		if b.Index() != start {
			t.Errorf("capacity %d: index after full cycle = %d, want %d", capacity, b.Index(), start)
		}
	}
}

func TestCurrentFollowsCycleCount(t *testing.T) {
	const capacity = 3
	b, err := New(capacity, capacity+2, func(i int) (int, error) { return i + 1, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for n := 0; n < 10; n++ {
		if got, want := *b.Current(), *b.At(n%capacity); got != want {
			t.Errorf("after %d cycles current = %d, want %d", n, got, want)
		}
		b.Cycle(nil)
	}
}

func TestTopCyclesLikeStack(t *testing.T) {
	b, err := New[int](3, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.items = b.items[:0]
	b.Push(1)
	b.Push(2)
	b.Push(3)

	want := []int{1, 2, 3, 1}
	for i, w := range want {
		if got := *b.Current(); got != w {
			t.Errorf("step %d: current = %d, want %d", i, got, w)
		}
		b.Cycle(nil)
	}
}

func TestNextIsCurrentAfterCycle(t *testing.T) {
	b, err := New(2, 2, func(i int) (int, error) { return i, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	next := b.Next()
	b.Cycle(nil)
	if b.Current() != next {
		t.Fatalf("Next did not predict Current")
	}
}

func TestCycleResetsNewCurrent(t *testing.T) {
	type slot struct{ counter int }
	b, err := New(2, 2, func(int) (slot, error) { return slot{counter: 7}, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Current().counter = 3
	b.Cycle(func(s *slot) { s.counter = 0 })

	if b.Current().counter != 0 {
		t.Errorf("new current counter = %d, want 0", b.Current().counter)
	}
	if b.At(0).counter != 3 {
		t.Errorf("previous slot touched by reset: %d", b.At(0).counter)
	}
}

func TestPopTransient(t *testing.T) {
	b, err := New(1, 1, func(int) (int, error) { return 10, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := b.Pop(); ok {
		t.Fatalf("Pop must refuse to drop below capacity")
	}
	b.Push(20)
	v, ok := b.Pop()
	if !ok || v != 20 {
		t.Fatalf("Pop = %d,%v want 20,true", v, ok)
	}
	if *b.Current() != 10 || b.Len() != 1 {
		t.Fatalf("after pop current=%d len=%d", *b.Current(), b.Len())
	}
}

func TestPopLeavesCycledItems(t *testing.T) {
	b, err := New(3, 3, func(i int) (int, error) { return i, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.Cycle(nil)
	b.Push(100)
	b.Push(101)

	for _, want := range []int{101, 100} {
		v, ok := b.Pop()
		if !ok || v != want {
			t.Fatalf("Pop = %d,%v want %d,true", v, ok, want)
		}
	}
	if _, ok := b.Pop(); ok {
		t.Fatalf("Pop removed a cycled item")
	}
	if b.Index() != 1 || *b.Current() != 1 {
		t.Fatalf("current moved: index=%d value=%d", b.Index(), *b.Current())
	}
	for i := 0; i < 3; i++ {
		if *b.At(i) != i {
			t.Fatalf("slot %d = %d", i, *b.At(i))
		}
	}
}

func TestDestroyReverseOrder(t *testing.T) {
	b, err := New(3, 3, func(i int) (int, error) { return i, nil })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var order []int
	b.Destroy(func(v *int) { order = append(order, *v) })
	if len(order) != 3 || order[0] != 2 || order[2] != 0 {
		t.Fatalf("destroy order = %v", order)
	}
	if b.Len() != 0 {
		t.Fatalf("ring not emptied")
	}
}
