package bus

import "sync"

// queue is an unbounded FIFO channel. push never blocks; a pump goroutine
// buffers elements until the consumer drains them from out.
type queue[T any] struct {
	mu     sync.Mutex
	in     chan T
	out    chan T
	closed bool
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	go q.run()
	return q
}

// push enqueues v. Pushing on a closed queue is a no-op.
func (q *queue[T]) push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.in <- v
}

func (q *queue[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}

func (q *queue[T]) run() {
	var pending []T
	in := q.in
	for in != nil || len(pending) > 0 {
		var out chan T
		var next T
		if len(pending) > 0 {
			out = q.out
			next = pending[0]
		}
		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, v)
		case out <- next:
			pending = pending[1:]
		}
	}
	close(q.out)
}
