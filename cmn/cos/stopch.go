package cos

import "go.uber.org/atomic"

// StopCh is a close-once stop signal used by Leonard's tick loop,
// mirroring aistore's transport.StopCh. closed
// is a go.uber.org/atomic.Bool rather than a plain bool+mutex, matching
// aistore's own preference for atomic flags over lock-guarded booleans on
// this kind of single-field state.
type StopCh struct {
	ch     chan struct{}
	closed atomic.Bool
}

func NewStopCh() *StopCh { return &StopCh{ch: make(chan struct{})} }

func (s *StopCh) Listen() <-chan struct{} { return s.ch }

func (s *StopCh) Close() {
	if s.closed.CAS(false, true) {
		close(s.ch)
	}
}

// Runner is the start/stop interface of a long-running loop. Leonard
// implements it; the worker pool and the broker's transport do not.
type Runner interface {
	Run() error
	Stop(err error)
}
