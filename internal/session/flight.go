package session

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when a mutating request is made while another is outstanding.
var ErrBusy = errors.New("another request is in progress")

// Ticket identifies one outstanding request.
type Ticket struct {
	gen uint64
}

// Flight is a single-flight guard keyed by a monotonically increasing
// generation. A response is applied only if its ticket is still current, so a
// preempted request can never overwrite newer state.
type Flight struct {
	mu     sync.Mutex
	gen    uint64
	busy   bool
	cancel context.CancelFunc
}

// Begin starts a request, failing with ErrBusy while another is outstanding.
// The returned context is cancelled if the request is preempted.
func (f *Flight) Begin(ctx context.Context) (Ticket, context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return Ticket{}, nil, ErrBusy
	}
	return f.startLocked(ctx)
}

// Preempt starts a request unconditionally. Any outstanding request is
// cancelled and its eventual response will be discarded.
func (f *Flight) Preempt(ctx context.Context) (Ticket, context.Context, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	preempted := f.busy
	if f.cancel != nil {
		f.cancel()
	}
	t, rctx, _ := f.startLocked(ctx)
	return t, rctx, preempted
}

func (f *Flight) startLocked(ctx context.Context) (Ticket, context.Context, error) {
	f.gen++
	f.busy = true
	rctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	return Ticket{gen: f.gen}, rctx, nil
}

// Finish settles the request identified by t. If t is still current, apply is
// run and the busy flag cleared; otherwise the response is stale, apply is not
// run and Finish reports false.
func (f *Flight) Finish(t Ticket, apply func()) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.gen != f.gen || !f.busy {
		return false
	}
	if apply != nil {
		apply()
	}
	f.busy = false
	f.cancel()
	f.cancel = nil
	return true
}

// Busy reports whether a request is outstanding.
func (f *Flight) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Generation returns the current generation.
func (f *Flight) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}
