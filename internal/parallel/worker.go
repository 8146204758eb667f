// Package parallel fans independent per-timeseries work out over a pool of
// goroutines.
//
// Ensemble operations such as interpolating every timeseries of a run onto a
// new time axis switch to the pool when the number of timeseries reaches the
// configured parallel threshold. Every work item writes only its own result
// slot, so the output order and values match the sequential path.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool; numWorkers <= 0 uses the CPU count
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NumWorkers returns the number of goroutines used per call
func (wp *WorkerPool) NumWorkers() int { return wp.numWorkers }

// ProcessIndexed executes work items in parallel while preserving order
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	results, _ := ProcessIndexedErr(wp, items, func(i int, item T) (R, error) {
		return worker(i, item), nil
	})
	return results
}

// ProcessIndexedErr is ProcessIndexed for fallible work. It returns the error
// of the lowest failing index, and stops handing out items once any fails.
func ProcessIndexedErr[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(wp.ctx)
	defer cancel()

	// Channel for input items with index
	itemCh := make(chan indexedItem[T], len(items))

	// Channel for results with index
	resultCh := make(chan indexedResult[R], len(items))

	numWorkers := wp.numWorkers
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-ctx.Done():
					return
				default:
					result, err := worker(item.index, item.value)
					if err != nil {
						cancel()
					}
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: result,
						err:    err,
					}
				}
			}
		}()
	}

	// Send items to workers
	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results and maintain order
	results := make([]R, len(items))
	firstErr := -1
	var err error
	for result := range resultCh {
		if result.err != nil {
			if firstErr < 0 || result.index < firstErr {
				firstErr, err = result.index, result.err
			}
			continue
		}
		results[result.index] = result.result
	}
	if err != nil {
		return nil, err
	}
	if wp.ctx.Err() != nil {
		return nil, wp.ctx.Err()
	}

	return results, nil
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
	err    error
}
