// Package parallel fans independent work items out to goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use (<= 0 means runtime.NumCPU).
	MinItems   int  // Below this many items, run sequentially.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinItems:   4,
	}
}

func (c Config) workers() int {
	if c.NumWorkers <= 0 {
		return runtime.NumCPU()
	}
	return c.NumWorkers
}

// For executes f(i) for i in [0, n) and returns the error of the lowest
// failing index, or nil.
//
// Items are handed to workers from a shared counter, so each f(i) runs
// exactly once. Falls back to an in-order sequential loop (stopping at the
// first error) when parallelism is disabled or n is too small.
func For(n int, f func(i int) error, cfg Config) error {
	workers := cfg.workers()
	if !cfg.Enabled || n < cfg.MinItems || workers == 1 {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, n)
	next := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < min(workers, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				errs[i] = f(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
