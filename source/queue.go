package source

import "time"

// Request asks the owning thread to reload scripts.
type Request struct {
	Reason string
	At     time.Time
}

// Queue hands reload requests from any goroutine to the owning thread.
// It holds at most one request; later posts coalesce into the pending one.
type Queue struct {
	ch chan Request
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ch: make(chan Request, 1)}
}

// Post enqueues r without blocking. It reports false when a request is
// already pending.
func (q *Queue) Post(r Request) bool {
	select {
	case q.ch <- r:
		return true
	default:
		return false
	}
}

// Drain takes the pending request, if any. Call it from the owning thread.
func (q *Queue) Drain() (Request, bool) {
	select {
	case r := <-q.ch:
		return r, true
	default:
		return Request{}, false
	}
}

// Pending reports whether a request is waiting.
func (q *Queue) Pending() bool { return len(q.ch) > 0 }

// C exposes the queue for select loops.
func (q *Queue) C() <-chan Request { return q.ch }
