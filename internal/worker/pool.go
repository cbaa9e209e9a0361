// Package worker provides a small generic worker pool. Documents in a batch
// are mutually independent, so the pool only bounds concurrency; it shares
// no state between tasks.
package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task holds the outcome of processing a single input. Done distinguishes a
// processed input from one the pool never dispatched before cancellation.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	Done   bool
}

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs inputs through a fixed number of workers.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool with the given concurrency (minimum 1).
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{workers: workers, process: fn}
}

// Execute runs all inputs and returns one Task per input, in input order.
// Cancelling ctx stops dispatching new inputs; in-flight tasks run to
// completion and their results are kept. Inputs never dispatched are
// returned with Done unset.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	indexCh := make(chan int, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx] = Task[T, R]{Input: inputs[idx], Result: result, Err: err, Done: true}
				if err != nil {
					log.Debug().Err(err).Int("index", idx).Msg("Task failed")
				}
			}
		}()
	}

dispatch:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break dispatch
		case indexCh <- i:
		}
	}
	close(indexCh)

	wg.Wait()
	return results
}
