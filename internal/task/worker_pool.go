package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WorkerPool bounds how many pipeline stages (compressions and uploads) run
// at once and tracks the goroutines running them for clean shutdown.
// Launching work never blocks the caller; waiting for a slot happens on the
// launched goroutine and gives up when its context is cancelled. A slot is
// held for as long as the stage function runs, even past its deadline.
type WorkerPool struct {
	// sem holds one token per running stage
	sem chan struct{}

	// wg tracks goroutines started with Go and every running stage
	wg sync.WaitGroup

	// logger for structured logging
	logger *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// MaxConcurrentStages determines how many stages may run at once
	// If zero or negative, defaults to 1
	MaxConcurrentStages int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxConcurrentStages: 4,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	// Apply defaults for invalid config values
	limit := config.MaxConcurrentStages
	if limit <= 0 {
		limit = 1
		logger.Warn("invalid stage concurrency specified, using default",
			"specified_count", config.MaxConcurrentStages,
			"default_count", 1)
	}

	return &WorkerPool{
		sem:    make(chan struct{}, limit),
		logger: logger,
	}
}

// Go runs fn on a new tracked goroutine.
func (p *WorkerPool) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

// Do waits for a free slot and then runs fn under timeout on a tracked
// goroutine that holds the slot. It returns when fn returns or when the
// deadline passes, whichever comes first. A collaborator that ignores its
// context keeps the slot until it actually returns, and Wait waits for it.
// If ctx ends before a slot frees up, fn does not run and ctx.Err() is
// returned. A panic in fn is returned as an error.
func (p *WorkerPool) Do(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	return p.run(ctx, timeout, fn, func() { <-p.sem })
}

// Run is Do without a slot. Finalize uses it so a callback never competes
// with media stages.
func (p *WorkerPool) Run(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	return p.run(ctx, timeout, fn, func() {})
}

func (p *WorkerPool) run(
	ctx context.Context,
	timeout time.Duration,
	fn func(ctx context.Context) error,
	release func(),
) error {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	done := make(chan error, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer release()
		defer cancel()

		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("stage panicked: %v", r)
			}
			done <- err
		}()
		err = fn(runCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		p.logger.Debug("stage deadline passed before it returned", "error", runCtx.Err())
		return runCtx.Err()
	}
}

// Capacity returns the maximum number of concurrent stages
func (p *WorkerPool) Capacity() int {
	return cap(p.sem)
}

// Wait blocks until every goroutine started with Go, and every stage
// function, has returned
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
