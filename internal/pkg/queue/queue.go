// Package queue provides a bounded-concurrency, rate-capped request queue.
// At most capacity units of work run at once and starts are paced by a
// token-bucket limiter; callers fire a unit of work and await its result
// channel, or drain the whole queue.
package queue

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Task is one queued unit of work.
type Task func(ctx context.Context) error

// Queue runs tasks through an errgroup with a concurrency limit and a
// shared rate limiter. A Queue is built per fetch pass and drained once.
type Queue struct {
	eg      *errgroup.Group
	limiter *rate.Limiter

	mu      sync.Mutex
	cond    *sync.Cond
	pending int
}

// New creates a queue running at most capacity tasks concurrently, starting
// at most perSecond tasks per second with the given burst. Non-positive
// arguments fall back to serial, unpaced execution.
func New(capacity int, perSecond float64, burst int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	eg := &errgroup.Group{}
	eg.SetLimit(capacity)
	q := &Queue{
		eg:      eg,
		limiter: rate.NewLimiter(limit, burst),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push schedules fn and returns a buffered channel that receives its result
// exactly once. A cancelled context is delivered as the task's error; task
// errors never tear down the group, each caller sees only its own.
func (q *Queue) Push(ctx context.Context, fn Task) <-chan error {
	done := make(chan error, 1)

	q.mu.Lock()
	q.pending++
	q.mu.Unlock()

	q.eg.Go(func() error {
		var err error
		defer func() {
			done <- err
			q.taskDone()
		}()

		if err = ctx.Err(); err != nil {
			return nil
		}
		if err = q.limiter.Wait(ctx); err != nil {
			return nil
		}
		err = fn(ctx)
		return nil
	})
	return done
}

// Pending reports how many tasks have been pushed but not yet finished.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Drain blocks until every pushed task has finished. The pending count is
// re-checked under the lock after each wakeup, so a Push racing with an
// empty signal is never missed.
func (q *Queue) Drain() {
	q.mu.Lock()
	for q.pending > 0 {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

func (q *Queue) taskDone() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}
