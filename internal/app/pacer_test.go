package app

import (
	"testing"
	"time"
)

// fakeClock advances by tick on every read and by d on every sleep.
type fakeClock struct {
	t     time.Time
	tick  time.Duration
	slept time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.tick)
	return c.t
}

func (c *fakeClock) sleep(d time.Duration) {
	c.slept += d
	c.t = c.t.Add(d)
}

func testPacer() (*framePacer, *fakeClock) {
	c := &fakeClock{t: time.Unix(1000, 0), tick: 10 * time.Microsecond}
	return &framePacer{now: c.now, sleep: c.sleep}, c
}

func TestFramePacerHoldsRate(t *testing.T) {
	p, c := testPacer()
	start := c.t
	for range 5 {
		p.Wait(100)
	}
	// Five 10ms periods, plus a few clock reads.
	elapsed := c.t.Sub(start)
	if elapsed < 50*time.Millisecond || elapsed > 50*time.Millisecond+4*c.tick {
		t.Fatalf("5 frames at 100 fps took %v", elapsed)
	}
	if c.slept == 0 {
		t.Fatal("pacer never slept")
	}
}

func TestFramePacerKeepsGridAfterSmallDelay(t *testing.T) {
	p, c := testPacer()
	p.Wait(100)
	first := p.deadline

	c.t = c.t.Add(3 * time.Millisecond)
	p.Wait(100)
	if want := first.Add(10 * time.Millisecond); !p.deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", p.deadline.Sub(first), want.Sub(first))
	}
}

func TestFramePacerResyncsAfterHitch(t *testing.T) {
	p, c := testPacer()
	p.Wait(200)

	c.t = c.t.Add(30 * time.Millisecond)
	waited := p.Wait(200)
	if waited < 5*time.Millisecond-spinWindow {
		t.Fatalf("waited %v after hitch, want a full period", waited)
	}
}

func TestFramePacerDisabled(t *testing.T) {
	p, c := testPacer()
	p.Wait(1000)
	slept := c.slept
	for _, fps := range []int{0, -1} {
		if waited := p.Wait(fps); waited != 0 {
			t.Fatalf("Wait(%d) blocked for %v", fps, waited)
		}
		if !p.deadline.IsZero() {
			t.Fatalf("Wait(%d) kept a deadline", fps)
		}
	}
	if c.slept != slept {
		t.Fatal("disabled pacer slept")
	}
}
