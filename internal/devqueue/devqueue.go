// ABOUTME: Serialized device-call queue with completion handles
// ABOUTME: Marshals audio-device calls onto a single handler goroutine
package devqueue

import (
	"errors"
	"sync"
)

// ErrClosed is returned for requests submitted after Close.
var ErrClosed = errors.New("devqueue: closed")

type request struct {
	fn   func() error
	done chan error
}

// Queue runs submitted functions one at a time on a dedicated handler
// goroutine. Audio backends use it so every device call happens on the
// same thread-bound goroutine regardless of which caller issues it,
// with each request getting its own completion handle.
type Queue struct {
	requests chan request

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New starts the handler goroutine.
func New() *Queue {
	q := &Queue{requests: make(chan request, 8)}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for req := range q.requests {
		req.done <- req.fn()
	}
}

// Submit enqueues fn and returns a completion handle that yields fn's
// result once the handler has run it.
func (q *Queue) Submit(fn func() error) <-chan error {
	done := make(chan error, 1)
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		done <- ErrClosed
		return done
	}
	q.requests <- request{fn: fn, done: done}
	q.mu.Unlock()
	return done
}

// Do enqueues fn and waits for its result.
func (q *Queue) Do(fn func() error) error {
	return <-q.Submit(fn)
}

// Close stops the handler after draining pending requests.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.requests)
	q.mu.Unlock()
	q.wg.Wait()
}
