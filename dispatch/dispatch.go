// Package dispatch distributes independent units of work across a bounded
// pool of workers while preserving submission order in the results.
//
// The pool is used for CPU-bound per-page work (rendering, OCR, extraction)
// underneath the ingestion controller, which keeps sequencing responsibility
// for checkpointing. A single unit's failure is captured as a per-unit error
// result and never propagates to sibling units.
package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool is a bounded worker pool.
type Pool struct {
	inner *ants.Pool
	size  int
}

// NewPool creates a pool with the given worker count.
// Sizes below 1 fall back to runtime.NumCPU()/2, with a minimum of 1.
func NewPool(size int) (*Pool, error) {
	if size < 1 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}
	inner, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Pool{inner: inner, size: size}, nil
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.size
}

// Release releases the pool's workers. The pool must not be used afterwards.
func (p *Pool) Release() {
	if p.inner != nil {
		p.inner.Release()
	}
}

// Result holds the outcome of one unit of work. Index is the unit's
// position in the submitted sequence.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Map executes fn for every unit concurrently, bounded by the pool's worker
// count, and returns one Result per unit in the original submission order
// regardless of completion order.
//
// A unit's error (or panic) is captured in its Result and does not affect
// sibling units. Map itself fails only when work cannot be submitted to the
// pool. Map does not stop submitting on ctx cancellation; fn implementations
// are expected to honor ctx themselves so in-flight batches drain quickly.
func Map[T, R any](ctx context.Context, p *Pool, units []T, fn func(context.Context, T) (R, error)) ([]Result[R], error) {
	results := make([]Result[R], len(units))
	var wg sync.WaitGroup

	for i, unit := range units {
		i, unit := i, unit
		wg.Add(1)
		err := p.inner.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result[R]{Index: i, Err: fmt.Errorf("worker panic: %v", r)}
				}
			}()
			value, err := fn(ctx, unit)
			results[i] = Result[R]{Index: i, Value: value, Err: err}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit work unit %d: %w", i, err)
		}
	}

	wg.Wait()
	return results, nil
}
