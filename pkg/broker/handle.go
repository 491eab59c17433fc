package broker

import (
	"context"
	"sync/atomic"
)

// Result is the terminal outcome of a submitted request. Exactly one of
// Response or Err is meaningful.
type Result struct {
	Response string
	Cached   bool
	Err      error
}

// Handle is the single-resolution completion handle returned by Submit. The
// caller blocks on Wait (or reads Done) until the broker resolves it.
type Handle struct {
	ch       chan Result
	resolved atomic.Bool
}

func newHandle() *Handle {
	return &Handle{ch: make(chan Result, 1)}
}

// resolve delivers the terminal result. Resolving a handle twice is a
// programming error and fails loudly.
func (h *Handle) resolve(r Result) {
	if h.resolved.Swap(true) {
		panic("broker: completion handle resolved twice")
	}
	h.ch <- r
}

// Done returns a channel that yields the terminal result exactly once.
func (h *Handle) Done() <-chan Result {
	return h.ch
}

// Wait blocks until the request completes or ctx is done. Abandoning a wait
// does not cancel an already-admitted request.
func (h *Handle) Wait(ctx context.Context) Result {
	select {
	case r := <-h.ch:
		return r
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}
