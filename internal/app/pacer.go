package app

import "time"

// spinWindow is how close to the deadline the pacer stops sleeping and spins.
const spinWindow = 200 * time.Microsecond

// framePacer holds the frame loop to a target rate. Deadlines stay on a fixed
// grid so sleep jitter does not accumulate; a frame more than one period
// late restarts the grid from now.
type framePacer struct {
	now   func() time.Time
	sleep func(time.Duration)

	deadline time.Time
}

func newFramePacer() *framePacer {
	return &framePacer{now: time.Now, sleep: time.Sleep}
}

// Wait blocks until the next frame is due at fps frames per second and
// returns how long it blocked. fps <= 0 disables pacing.
func (p *framePacer) Wait(fps int) time.Duration {
	if fps <= 0 {
		p.deadline = time.Time{}
		return 0
	}
	period := time.Second / time.Duration(fps)

	start := p.now()
	if p.deadline.IsZero() || start.Sub(p.deadline) > period {
		p.deadline = start
	}
	p.deadline = p.deadline.Add(period)

	for {
		left := p.deadline.Sub(p.now())
		if left <= 0 {
			break
		}
		if left > spinWindow {
			p.sleep(left - spinWindow)
		}
	}
	return p.now().Sub(start)
}
