package task

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

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()

	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: 5}, logger)
	assert.NotNil(t, pool)
	assert.Equal(t, 5, pool.Capacity())

	// Test with invalid concurrency (should default to 1)
	pool = NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: 0}, logger)
	assert.Equal(t, 1, pool.Capacity())

	// Test with negative concurrency (should default to 1)
	pool = NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: -5}, logger)
	assert.Equal(t, 1, pool.Capacity())

	assert.Equal(t, 4, DefaultWorkerPoolConfig().MaxConcurrentStages)
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: 2}, setupTestLogger())

	var running, maxRunning int32
	for i := 0; i < 8; i++ {
		pool.Go(func() {
			_ = pool.Do(context.Background(), time.Second, func(ctx context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxRunning)
					if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
		})
	}

	pool.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&maxRunning), int32(2))
	assert.Equal(t, int32(0), atomic.LoadInt32(&running))
}

func TestWorkerPool_DoReturnsFnError(t *testing.T) {
	pool := NewWorkerPool(DefaultWorkerPoolConfig(), setupTestLogger())
	expectedErr := errors.New("stage error")

	err := pool.Do(context.Background(), time.Second, func(ctx context.Context) error {
		return expectedErr
	})
	assert.Equal(t, expectedErr, err)
}

func TestWorkerPool_DoCancelledWhileWaiting(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: 1}, setupTestLogger())

	release := make(chan struct{})
	holding := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = pool.Do(context.Background(), time.Second, func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := pool.Do(ctx, time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran, "fn must not run when no slot was acquired")

	close(release)
	wg.Wait()
}

func TestWorkerPool_SlotHeldPastDeadline(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: 1}, setupTestLogger())

	release := make(chan struct{})
	var finished atomic.Bool

	// The stage ignores its context, so Do returns at the deadline while the
	// function keeps running
	err := pool.Do(context.Background(), 20*time.Millisecond, func(ctx context.Context) error {
		<-release
		finished.Store(true)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	ran := false
	err = pool.Do(waitCtx, time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran, "the slot must stay taken until the first stage returns")

	close(release)
	pool.Wait()
	assert.True(t, finished.Load(), "Wait must wait for the detached stage")

	err = pool.Do(context.Background(), time.Second, func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, ran)
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: 1}, setupTestLogger())

	err := pool.Do(context.Background(), time.Second, func(ctx context.Context) error {
		panic("decoder bug")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoder bug")

	// The slot was released
	assert.NoError(t, pool.Do(context.Background(), time.Second, func(ctx context.Context) error {
		return nil
	}))
}

func TestWorkerPool_RunIgnoresSlots(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: 1}, setupTestLogger())

	release := make(chan struct{})
	holding := make(chan struct{})
	pool.Go(func() {
		_ = pool.Do(context.Background(), time.Second, func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	})
	<-holding

	err := pool.Run(context.Background(), time.Second, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)

	close(release)
	pool.Wait()
}
