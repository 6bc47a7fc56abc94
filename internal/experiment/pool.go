package experiment

import (
	"sync"

	"github.com/san-kum/agentlab/internal/abm"
)

// Pool executes independent run units. The mapping of run id to work
// item is deterministic, but the order of the returned bundles is
// unspecified; every bundle carries its own run id for re-association.
// The core adds no retry or cancellation layer on top of a pool: the
// pool's own failure semantics propagate to the caller unmodified.
type Pool interface {
	Map(n int, fn func(runID int) (*abm.Bundle, error)) ([]*abm.Bundle, error)
}

// WorkerPool runs work items on a fixed number of goroutines. Bundles
// are returned in completion order. The first failure is reported
// after all in-flight work has drained; no work is retried.
type WorkerPool struct {
	Workers int
}

// NewWorkerPool returns a pool with the given concurrency, at least 1.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{Workers: workers}
}

func (p *WorkerPool) Map(n int, fn func(runID int) (*abm.Bundle, error)) ([]*abm.Bundle, error) {
	ids := make(chan int)
	type outcome struct {
		bundle *abm.Bundle
		err    error
	}
	results := make(chan outcome)

	var wg sync.WaitGroup
	for w := 0; w < p.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				b, err := fn(id)
				results <- outcome{bundle: b, err: err}
			}
		}()
	}

	go func() {
		for id := 0; id < n; id++ {
			ids <- id
		}
		close(ids)
		wg.Wait()
		close(results)
	}()

	bundles := make([]*abm.Bundle, 0, n)
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		bundles = append(bundles, r.bundle)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return bundles, nil
}
