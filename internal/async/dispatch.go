// Package async coordinates query execution off the caller's
// goroutine. A Manager enforces single-flight semantics per named
// slot; completed work is handed back through a Dispatcher so that
// callbacks only ever run on the goroutine that drains it.
package async

import "context"

// Dispatcher marshals completed work back to an owner goroutine.
// Workers never invoke callbacks directly; they enqueue them here.
type Dispatcher interface {
	Dispatch(fn func())
}

const defaultQueueDepth = 64

// Queue is a channel-backed Dispatcher. The owner goroutine drains it
// with Drain each tick, or runs Run as its event loop. Delivery order
// is FIFO relative to completion, not relative to request issuance.
type Queue struct {
	ch chan func()
}

// NewQueue creates a dispatch queue with the given buffer depth.
func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = defaultQueueDepth
	}
	return &Queue{ch: make(chan func(), depth)}
}

// Dispatch enqueues fn for the owner goroutine. Blocks when the queue
// is full, which back-pressures workers rather than dropping results.
func (q *Queue) Dispatch(fn func()) {
	q.ch <- fn
}

// Drain runs every callback currently queued without blocking, and
// returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.ch:
			fn()
			n++
		default:
			return n
		}
	}
}

// Run drains the queue until ctx is done. Intended as the owner
// goroutine's event loop.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-q.ch:
			fn()
		}
	}
}

// Wait blocks until one callback is available and runs it, or returns
// false when ctx is done first.
func (q *Queue) Wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case fn := <-q.ch:
		fn()
		return true
	}
}
