package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingStopper struct{ stops atomic.Int32 }

func (c *countingStopper) Stop() { c.stops.Add(1) }

func TestShutdownCancelsConstruction(t *testing.T) {
	ctx, s := NewShutdown(context.Background())

	triggered := make(chan struct{})
	go func() {
		s.Trigger()
		close(triggered)
	}()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled before a viewer exists")
	}
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Fatalf("ctx.Err() = %v", ctx.Err())
	}

	select {
	case <-triggered:
		t.Fatal("Trigger returned before the main thread finished")
	case <-time.After(20 * time.Millisecond):
	}
	s.Finish()
	select {
	case <-triggered:
	case <-time.After(time.Second):
		t.Fatal("Trigger still waiting after Finish")
	}
}

func TestShutdownStopsAttachedViewer(t *testing.T) {
	_, s := NewShutdown(context.Background())
	st := &countingStopper{}
	s.Attach(st)
	s.Finish()
	s.Finish()

	s.Trigger()
	if got := st.stops.Load(); got != 1 {
		t.Fatalf("Stop called %d times, want 1", got)
	}
}
