package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPush_DeliversTaskResult(t *testing.T) {
	q := New(2, 0, 0)

	okDone := q.Push(context.Background(), func(ctx context.Context) error {
		return nil
	})
	wantErr := errors.New("boom")
	errDone := q.Push(context.Background(), func(ctx context.Context) error {
		return wantErr
	})

	assert.NoError(t, <-okDone)
	assert.ErrorIs(t, <-errDone, wantErr)
}

func TestPush_TaskErrorDoesNotTearDownGroup(t *testing.T) {
	q := New(1, 0, 0)

	first := q.Push(context.Background(), func(ctx context.Context) error {
		return errors.New("first fails")
	})
	second := q.Push(context.Background(), func(ctx context.Context) error {
		return nil
	})

	assert.Error(t, <-first)
	assert.NoError(t, <-second, "a failed task must not poison later tasks")
}

func TestPush_CancelledContextSkipsTask(t *testing.T) {
	q := New(1, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	done := q.Push(ctx, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, ran.Load())
}

func TestQueue_ConcurrencyCap(t *testing.T) {
	const capacity = 3
	q := New(capacity, 0, 0)

	var running, peak int64
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		q.Push(context.Background(), func(ctx context.Context) error {
			cur := atomic.AddInt64(&running, 1)
			mu.Lock()
			if cur > peak {
				peak = cur
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
			return nil
		})
	}
	q.Drain()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(capacity))
}

func TestDrain_WaitsForAllTasks(t *testing.T) {
	q := New(4, 0, 0)

	var completed atomic.Int64
	for i := 0; i < 25; i++ {
		q.Push(context.Background(), func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			completed.Add(1)
			return nil
		})
	}
	q.Drain()

	assert.Equal(t, int64(25), completed.Load())
	assert.Zero(t, q.Pending())
}

func TestNew_NonPositiveArgumentsFallBackToSerial(t *testing.T) {
	q := New(0, -1, -2)
	require.NotNil(t, q)

	done := q.Push(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, <-done)
}

func TestQueue_RateLimiterPacesStarts(t *testing.T) {
	// 2 immediate burst tokens, then 50/s: the remaining 3 tasks need at
	// least ~60ms of refill time.
	q := New(5, 50, 2)

	start := time.Now()
	for i := 0; i < 5; i++ {
		q.Push(context.Background(), func(ctx context.Context) error { return nil })
	}
	q.Drain()

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
