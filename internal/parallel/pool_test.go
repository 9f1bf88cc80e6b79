package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolCreate(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{"Explicit", 4, 4},
		{"Zero", 0, runtime.GOMAXPROCS(0)},
		{"Negative", -5, runtime.GOMAXPROCS(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewPool(tt.workers).Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPoolRunVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 4} {
		p := NewPool(workers)
		for _, n := range []int{0, 1, 3, 4, 5, 100} {
			seen := make([]atomic.Int32, n)
			err := p.Run(n, func(i int) error {
				seen[i].Add(1)
				return nil
			})
			if err != nil {
				t.Fatalf("workers=%d n=%d: Run() error = %v", workers, n, err)
			}
			for i := range seen {
				if got := seen[i].Load(); got != 1 {
					t.Errorf("workers=%d n=%d: index %d visited %d times, want 1", workers, n, i, got)
				}
			}
		}
	}
}

func TestPoolRunError(t *testing.T) {
	boom := errors.New("boom")
	for _, workers := range []int{1, 4} {
		p := NewPool(workers)
		var calls atomic.Int32
		err := p.Run(1000, func(i int) error {
			calls.Add(1)
			if i == 0 {
				return boom
			}
			return nil
		})
		if !errors.Is(err, boom) {
			t.Errorf("workers=%d: Run() error = %v, want %v", workers, err, boom)
		}
		// Index 0 opens the first band of 1000/workers indices; that band
		// stops at once, so at most the other bands run to completion.
		band := 1000 / workers
		if got := calls.Load(); got > int32(1000-band+1) {
			t.Errorf("workers=%d: %d calls, want at most %d", workers, got, 1000-band+1)
		}
	}
}

func TestPoolConcurrentRun(t *testing.T) {
	p := NewPool(4)

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Run(50, func(int) error {
				total.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()
	if total.Load() != 400 {
		t.Errorf("total = %d, want 400", total.Load())
	}
}

func BenchmarkPoolRun(b *testing.B) {
	p := NewPool(0)
	buf := make([]byte, 1<<16)
	for b.Loop() {
		_ = p.Run(len(buf)/256, func(i int) error {
			row := buf[i*256 : (i+1)*256]
			for j := range row {
				row[j]++
			}
			return nil
		})
	}
}
