package compute

import (
	"fmt"
	"runtime"
	"sync"
)

// Executor runs bounded units of work across a fixed set of workers. It is
// explicitly constructed and injected into whatever drives it, so tests can
// pin the parallelism degree.
//
// Map partitions an index range into contiguous chunks, one per worker, and
// blocks until every worker has finished. That return acts as the
// synchronization barrier between simulation steps: no caller observes a
// partially processed range.
type Executor struct {
	workers int
}

// NewExecutor returns an executor with the given worker count. A count of
// zero or less selects one worker per CPU.
func NewExecutor(workers int) *Executor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Executor{workers: workers}
}

// Workers returns the configured parallelism degree.
func (e *Executor) Workers() int { return e.workers }

// TaskError records the failure of a single worker's chunk.
type TaskError struct {
	Worker int
	Err    error
}

func (t *TaskError) Error() string {
	return fmt.Sprintf("worker %d: %v", t.Worker, t.Err)
}

func (t *TaskError) Unwrap() error { return t.Err }

// Map splits [0, n) into contiguous per-worker ranges and calls fn once per
// non-empty range, concurrently. It waits for all workers before returning.
// Every worker failure is collected; the returned slice is nil when all
// workers succeed. A panicking worker is reported as a failure rather than
// taking the process down mid-step.
func (e *Executor) Map(n int, fn func(worker, start, end int) error) []error {
	if n <= 0 {
		return nil
	}

	workers := e.workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	errs := make([]error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[w] = &TaskError{Worker: w, Err: fmt.Errorf("panic: %v", r)}
				}
			}()

			if err := fn(w, start, end); err != nil {
				errs[w] = &TaskError{Worker: w, Err: err}
			}
		}(w, start, end)
	}

	wg.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return failed
}
