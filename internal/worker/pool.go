package worker

import (
	"context"
	"sync"
)

// Pool fans a fixed set of tasks out over a bounded number of
// goroutines and collects one result per task, preserving input
// order. R is the per-task result type; tasks report failure inside R
// rather than aborting the pool, so one bad task never cancels its
// siblings.
type Pool[R any] struct {
	workers int
}

// NewPool creates a pool with the given concurrency. Non-positive
// values fall back to a single worker.
func NewPool[R any](workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[R]{workers: workers}
}

// Workers returns the configured concurrency.
func (p *Pool[R]) Workers() int {
	return p.workers
}

// Run executes fn for every index in [0, n) and returns the results
// in input order. No new tasks are dispatched once ctx is cancelled;
// slots for tasks never started hold the zero value of R.
func (p *Pool[R]) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) R) []R {
	results := make([]R, n)
	if n == 0 {
		return results
	}

	workers := p.workers
	if workers > n {
		workers = n
	}

	tasks := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				results[i] = fn(ctx, i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			close(tasks)
			wg.Wait()
			return results
		case tasks <- i:
		}
	}
	close(tasks)
	wg.Wait()

	return results
}
