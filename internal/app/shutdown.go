package app

import (
	"context"
	"sync"
)

// Stopper is a running loop that can be asked to return.
type Stopper interface {
	Stop()
}

// Shutdown carries a signal from any goroutine to the main thread. Before a
// viewer is attached it cancels construction; afterwards it also stops the
// viewer. Trigger waits until the main thread reports Finish.
type Shutdown struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	stopper Stopper

	done     chan struct{}
	doneOnce sync.Once
}

// NewShutdown returns a context cancelled by Trigger.
func NewShutdown(parent context.Context) (context.Context, *Shutdown) {
	ctx, cancel := context.WithCancel(parent)
	return ctx, &Shutdown{cancel: cancel, done: make(chan struct{})}
}

// Attach registers the loop Trigger stops.
func (s *Shutdown) Attach(st Stopper) {
	s.mu.Lock()
	s.stopper = st
	s.mu.Unlock()
}

// Trigger cancels the context, stops the attached loop if any and waits for
// Finish.
func (s *Shutdown) Trigger() {
	s.cancel()
	s.mu.Lock()
	st := s.stopper
	s.mu.Unlock()
	if st != nil {
		st.Stop()
	}
	<-s.done
}

// Finish reports that the main thread has released everything. Calling it
// more than once is a no-op.
func (s *Shutdown) Finish() {
	s.doneOnce.Do(func() {
		s.cancel()
		close(s.done)
	})
}
