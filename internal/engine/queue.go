package engine

import (
	"sync"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// event is one unit of work for the single-writer loop: a completion
// to persist and evaluate (with its provenance edges), or a drain
// request for a concept that just became available.
type event struct {
	rec   *ir.ActionRecord
	edges []ir.Edge

	// drain, when non-empty, asks the loop to release held actions
	// for this concept instead of processing a completion.
	drain string
}

// eventQueue is the unbounded FIFO feeding the Run loop. Cascading
// firings enqueue their completions here from worker goroutines, so
// it must never block producers against the loop that drains it.
//
// The buffered signal channel coalesces wakeups and lets the loop
// wait with context awareness.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends an event. Safe from any goroutine. Returns false
// once the queue is closed.
func (q *eventQueue) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front event without blocking.
func (q *eventQueue) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}
	e := q.events[0]

	// Nil the slot so the record pointer does not outlive its turn in
	// the backing array.
	q.events[0] = event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns the signal channel for select-based waiting. The
// channel closes when the queue closes, waking all waiters.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued events.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close marks the queue closed and wakes waiters. Idempotent.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
