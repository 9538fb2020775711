package trafficlight

import (
	"context"
	"sync"
)

// MessageQueue is an unbounded blocking FIFO.
//
// Send never blocks. Receive blocks while the queue is empty. Every sent
// value is delivered to exactly one receiver, so concurrent receivers
// compete for values rather than each seeing all of them.
type MessageQueue[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []T
}

// NewMessageQueue returns an empty queue.
func NewMessageQueue[T any]() *MessageQueue[T] {
	q := &MessageQueue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send appends v to the tail and wakes one waiting receiver.
func (q *MessageQueue[T]) Send(v T) {
	q.mu.Lock()
	q.queue = append(q.queue, v)
	q.mu.Unlock()
	q.cond.Signal()
}

// Receive removes and returns the head, waiting until one is available.
func (q *MessageQueue[T]) Receive() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.queue) == 0 {
		q.cond.Wait()
	}
	return q.dequeue()
}

// ReceiveContext is like Receive but gives up with ctx.Err() once ctx is done.
// A queued value is always preferred over cancellation.
func (q *MessageQueue[T]) ReceiveContext(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		// wake every waiter so the cancelled one can leave; the others re-check.
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.queue) == 0 {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		q.cond.Wait()
	}
	return q.dequeue(), nil
}

// Len returns the number of queued values.
func (q *MessageQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// dequeue must be called with q.mu held and the queue non-empty.
func (q *MessageQueue[T]) dequeue() T {
	v := q.queue[0]
	var zero T
	q.queue[0] = zero
	q.queue = q.queue[1:]
	return v
}
