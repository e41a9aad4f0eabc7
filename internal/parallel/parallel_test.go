package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinItems: 1}

	var counter int64
	n := 1000
	seen := make([]int32, n)

	err := For(n, func(i int) error {
		atomic.AddInt64(&counter, 1)
		atomic.AddInt32(&seen[i], 1)
		return nil
	}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
	for i, c := range seen {
		if c != 1 {
			t.Fatalf("item %d ran %d times", i, c)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var order []int
	err := For(5, func(i int) error {
		order = append(order, i)
		return nil
	}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("sequential order broken: %v", order)
		}
	}
}

func TestFor_SequentialStopsAtFirstError(t *testing.T) {
	errBoom := errors.New("boom")
	var calls int
	err := For(10, func(i int) error {
		calls++
		if i == 3 {
			return errBoom
		}
		return nil
	}, Config{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestFor_ParallelReturnsLowestIndexError(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinItems: 1}
	err := For(100, func(i int) error {
		if i%10 == 7 {
			return fmt.Errorf("item %d", i)
		}
		return nil
	}, cfg)
	if err == nil || err.Error() != "item 7" {
		t.Fatalf("expected error from item 7, got %v", err)
	}
}

func TestFor_SmallInputRunsSequentially(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinItems = 100

	var counter int64
	_ = For(10, func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	}, cfg)
	if counter != 10 {
		t.Errorf("Expected 10, got %d", counter)
	}
}
