package console

import "sync"

// Dispatcher moves work onto the loop that owns the UI state.
type Dispatcher interface {
	Dispatch(fn func())
}

// InlineDispatcher runs work on the calling goroutine. It suits headless use
// and tests.
type InlineDispatcher struct{}

// Dispatch implements Dispatcher.
func (InlineDispatcher) Dispatch(fn func()) {
	if fn != nil {
		fn()
	}
}

// Queue collects dispatched work until the UI loop drains it. notify is
// called once per batch so the loop can be woken, e.g. by sending a message
// to a Bubble Tea program. notify must not block on the UI loop.
type Queue struct {
	mu       sync.Mutex
	pending  []func()
	signaled bool
	notify   func()
}

// NewQueue creates a queue that calls notify when work becomes pending.
func NewQueue(notify func()) *Queue {
	return &Queue{notify: notify}
}

// Dispatch implements Dispatcher.
func (q *Queue) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	wake := !q.signaled && q.notify != nil
	if wake {
		q.signaled = true
	}
	q.mu.Unlock()

	if wake {
		q.notify()
	}
}

// Drain runs pending work in dispatch order and reports how much ran. Work
// dispatched while draining runs in the same call.
func (q *Queue) Drain() int {
	ran := 0
	for {
		q.mu.Lock()
		fns := q.pending
		q.pending = nil
		if len(fns) == 0 {
			q.signaled = false
			q.mu.Unlock()
			return ran
		}
		q.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
		ran += len(fns)
	}
}

// Pending reports how many functions are waiting.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
